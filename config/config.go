// Package config defines the coordinator's command-line and environment
// configuration surface, grouped with go-flags group tags the way the
// teacher's mainboilerplate.AddressConfig/LogConfig structs are grouped in
// examples/word-count/wordcountctl/main.go.
package config

import (
	"fmt"
	"time"
)

// ServerConfig controls the HTTP ingress (SPEC_FULL.md §6).
type ServerConfig struct {
	Port               int `long:"port" env:"PORT" default:"8080" description:"Port the HTTP ingress listens on"`
	SoBacklog          int `long:"so-backlog" env:"SO_BACKLOG" default:"2048" description:"Listen backlog size"`
	IdleTimeoutSeconds int `long:"idle-time-seconds" env:"IDLE_TIME_SECONDS" default:"60" description:"Idle keep-alive connection timeout"`
	StartupWaitSeconds int `long:"startup-wait-seconds" env:"STARTUP_WAIT_SECONDS" default:"5" description:"Budget within which the listener must bind before Serve fails with ErrStartupTimeout"`

	// BossThreadCount and WorkerThreadCount are accepted for config-surface
	// parity with the original server, which splits accept and I/O loops
	// across dedicated thread pools. net/http's single accept-loop-plus-
	// goroutine-per-connection model has no equivalent knob; both fields are
	// parsed but otherwise unused, and Validate does not check them (see
	// SPEC_FULL.md §6).
	BossThreadCount   int `long:"boss-thread-count" env:"BOSS_THREAD_COUNT" default:"1" description:"Unused; retained for config compatibility"`
	WorkerThreadCount int `long:"worker-thread-count" env:"WORKER_THREAD_COUNT" default:"8" description:"Unused; retained for config compatibility"`
}

// IdleTimeout returns IdleTimeoutSeconds as a time.Duration.
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// StartupWait returns StartupWaitSeconds as a time.Duration.
func (c ServerConfig) StartupWait() time.Duration {
	return time.Duration(c.StartupWaitSeconds) * time.Second
}

// Validate checks ServerConfig for obviously invalid values.
func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SoBacklog <= 0 {
		return fmt.Errorf("so-backlog must be positive, got %d", c.SoBacklog)
	}
	return nil
}

// OperationConfig controls the coordinator's Get Policy (SPEC_FULL.md §4.1)
// and the deadline the HTTP ingress applies to each operation.
type OperationConfig struct {
	GetParallelism   int           `long:"get-parallelism" env:"GET_PARALLELISM" default:"2" description:"Max in-flight replica requests per Get operation"`
	GetSuccessTarget int           `long:"get-success-target" env:"GET_SUCCESS_TARGET" default:"1" description:"Successful replica responses required to complete a Get"`
	RequestTimeout   time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"1s" description:"Per-operation deadline"`
}

// Validate checks OperationConfig for obviously invalid values.
func (c OperationConfig) Validate() error {
	if c.GetParallelism <= 0 {
		return fmt.Errorf("get-parallelism must be positive, got %d", c.GetParallelism)
	}
	if c.GetSuccessTarget <= 0 {
		return fmt.Errorf("get-success-target must be positive, got %d", c.GetSuccessTarget)
	}
	return nil
}

// LogConfig controls process-wide logrus setup, mirroring the teacher's
// mbp.LogConfig (level/format) group.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"info" description:"Logging level (debug, info, warn, error)"`
	Format string `long:"format" env:"FORMAT" default:"text" description:"Logging format (text, json)"`
}

// PoolConfig controls the replica TCP connection pool.
type PoolConfig struct {
	DialTimeout       time.Duration `long:"dial-timeout" env:"DIAL_TIMEOUT" default:"500ms" description:"Timeout dialing a replica connection"`
	MaxIdlePerReplica int           `long:"max-idle-per-replica" env:"MAX_IDLE_PER_REPLICA" default:"4" description:"Idle connections retained per replica"`
}

// Config is the coordinator daemon's top-level configuration, assembled the
// way the teacher composes its mainboilerplate groups under a single
// top-level Config struct passed to flags.NewParser.
type Config struct {
	Server    ServerConfig    `group:"Server" namespace:"server" env-namespace:"SERVER"`
	Operation OperationConfig `group:"Operation" namespace:"operation" env-namespace:"OPERATION"`
	Pool      PoolConfig      `group:"Pool" namespace:"pool" env-namespace:"POOL"`
	Log       LogConfig       `group:"Logging" namespace:"log" env-namespace:"LOG"`

	LocalDatacenter string `long:"local-datacenter" env:"LOCAL_DATACENTER" required:"true" description:"Datacenter identifier this coordinator instance runs in"`
	ClientId        string `long:"client-id" env:"CLIENT_ID" default:"ambry-coordinator" description:"Client identifier attached to outbound GetRequests"`
}

// Validate checks every sub-config.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Operation.Validate(); err != nil {
		return err
	}
	if c.LocalDatacenter == "" {
		return fmt.Errorf("local-datacenter is required")
	}
	return nil
}
