package ingress

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"go.ambry.dev/ambry/coordinator"
	"go.ambry.dev/ambry/message"
	"go.ambry.dev/ambry/protocol"
)

// registerRoutes wires the three Get-flavored routes SPEC_FULL.md §6 names
// onto mux, mirroring sanke08-Distributed-Cache's registerHTTPHandlers
// (internal/server/http.go): one mux.HandleFunc call per route, each
// delegating to a method on the owning Server.
func registerRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /blobs/{blobId}", s.handleGetBlob)
	mux.HandleFunc("GET /blobs/{blobId}/properties", s.handleGetProperties)
	mux.HandleFunc("GET /blobs/{blobId}/usermetadata", s.handleGetUserMetadata)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	var blobId, ok = s.parseBlobId(w, r)
	if !ok {
		return
	}

	var op, err = s.newOperation(blobId, protocol.GetBlob)
	if err != nil {
		writeError(w, err)
		return
	}

	var result coordinator.Result
	result, err = coordinator.Get(r.Context(), op)
	if err != nil {
		writeError(w, err)
		return
	}
	defer result.Payload.Close()

	var decoder message.BlobDecoder
	var blob message.BlobResult
	blob, err = decoder.Decode(result.MessageInfo, result.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", decoder.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, blob.Body); err != nil {
		log.WithField("blob_id", blobId.String()).WithError(err).Warn("error streaming blob body to client")
	}
}

func (s *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	var blobId, ok = s.parseBlobId(w, r)
	if !ok {
		return
	}

	var op, err = s.newOperation(blobId, protocol.GetBlobProperties)
	if err != nil {
		writeError(w, err)
		return
	}

	var result coordinator.Result
	result, err = coordinator.GetProperties(r.Context(), op)
	if err != nil {
		writeError(w, err)
		return
	}

	var decoder message.PropertiesDecoder
	var props protocol.BlobProperties
	props, err = decoder.Decode(result.MessageInfo, result.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	var expiresAt string
	if props.ExpiresAt != 0 {
		expiresAt = time.Unix(props.ExpiresAt, 0).UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blobId":    props.BlobId.String(),
		"size":      props.Size,
		"expiresAt": expiresAt,
	})
}

func (s *Server) handleGetUserMetadata(w http.ResponseWriter, r *http.Request) {
	var blobId, ok = s.parseBlobId(w, r)
	if !ok {
		return
	}

	var op, err = s.newOperation(blobId, protocol.GetUserMetadata)
	if err != nil {
		writeError(w, err)
		return
	}

	var result coordinator.Result
	result, err = coordinator.GetUserMetadata(r.Context(), op)
	if err != nil {
		writeError(w, err)
		return
	}

	var decoder message.UserMetadataDecoder
	var metadata []byte
	metadata, err = decoder.Decode(result.MessageInfo, result.Payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", decoder.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(metadata)
}

// parseBlobId extracts and decodes the {blobId} path segment, writing a 400
// response and returning ok=false on failure.
func (s *Server) parseBlobId(w http.ResponseWriter, r *http.Request) (protocol.BlobId, bool) {
	var raw = r.PathValue("blobId")
	var blobId, err = protocol.ParseBlobId(raw)
	if err != nil {
		http.Error(w, "malformed blob id: "+err.Error(), http.StatusBadRequest)
		return protocol.BlobId{}, false
	}
	return blobId, true
}

// newOperation resolves blobId's partition from the cluster Map and builds
// the Operation that will fetch it, per SPEC_FULL.md §4.1.
func (s *Server) newOperation(blobId protocol.BlobId, flags protocol.GetFlags) (*coordinator.Operation, error) {
	var partition, err = s.clusterMap.Partition(blobId.PartitionId())
	if err != nil {
		return nil, err
	}

	return coordinator.NewGetOperation(
		partition,
		s.localDC,
		blobId,
		flags,
		s.clientId,
		s.pool,
		s.opCfg.GetParallelism,
		s.opCfg.GetSuccessTarget,
	), nil
}

// writeError maps a coordinator Err* sentinel onto an HTTP status: 404 for
// does-not-exist, 410 for deleted or expired, 503 for unavailable, 504 for
// timed out, and 500 for anything else (including a ClusterMap lookup error).
func writeError(w http.ResponseWriter, err error) {
	var status = http.StatusInternalServerError
	switch {
	case errors.Is(err, coordinator.ErrBlobDoesNotExist):
		status = http.StatusNotFound
	case errors.Is(err, coordinator.ErrBlobDeleted):
		status = http.StatusGone
	case errors.Is(err, coordinator.ErrBlobExpired):
		status = http.StatusGone
	case errors.Is(err, coordinator.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, coordinator.ErrOperationTimedOut):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("unexpected error serving request")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("error encoding JSON response")
	}
}
