// Command ambryd runs the coordinator's HTTP ingress, following the
// flags.NewParser/mbp.Must wiring pattern of
// examples/word-count/wordcountctl/main.go: a single Config struct parsed
// by go-flags, logging configured from it, then the server run to
// completion or signal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"go.ambry.dev/ambry/cluster"
	"go.ambry.dev/ambry/config"
	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/ingress"
	"go.ambry.dev/ambry/internal/task"
	"go.ambry.dev/ambry/protocol"
)

var Config = new(config.Config)

func main() {
	var parser = flags.NewParser(Config, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	configureLogging(Config.Log)

	if err := Config.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	var clusterMap = loadClusterMap()
	var pool = client.NewTCPPool(Config.Pool.MaxIdlePerReplica, Config.Pool.DialTimeout)

	var srv = ingress.NewServer(
		Config.Server,
		Config.Operation,
		clusterMap,
		pool,
		protocol.DatacenterId(Config.LocalDatacenter),
		Config.ClientId,
	)

	var ctx, cancel = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var group = task.NewGroup(ctx)
	if err := srv.Serve(group); err != nil {
		log.WithError(err).Fatal("failed to start ingress server")
	}

	if err := group.Wait(); err != nil {
		log.WithError(err).Fatal("ambryd exited with error")
	}
}

func configureLogging(cfg config.LogConfig) {
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.Level).Warn("unrecognized log level; defaulting to info")
		log.SetLevel(log.InfoLevel)
	}

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

// loadClusterMap constructs the static ClusterMap this binary serves from.
// A production deployment would instead source Partition topology from a
// watched, distributed service (see cluster.Static's doc comment); wiring
// that is explicitly out of scope here, so an operator currently configures
// topology by editing this function (or replacing it with one that reads a
// topology file) before building ambryd.
func loadClusterMap() cluster.Map {
	return cluster.NewStatic()
}
