// Package config loads the router's own operational settings. Route-table
// contents and cluster definitions are owned elsewhere; this only covers
// the knobs the router itself reads (default upstream protocol name,
// pool-acquire timeout hint, log level), the same way a mosn-style proxy loads per-filter config rather than
// hand-rolled flag parsing.
package config

import (
	"time"

	"github.com/spf13/viper"
	"mosn.io/pkg/log"

	"mosn.io/thrift-router/pkg/types"
)

// RouterConfig is the router's own operational configuration.
type RouterConfig struct {
	DefaultUpstreamProtocol string        `mapstructure:"default_upstream_protocol"`
	LogLevel                string        `mapstructure:"log_level"`
	PoolAcquireTimeoutHint  time.Duration `mapstructure:"pool_acquire_timeout_hint"`
}

func defaults() *RouterConfig {
	return &RouterConfig{
		DefaultUpstreamProtocol: "binary",
		LogLevel:                "ERROR",
		PoolAcquireTimeoutHint:  2 * time.Second,
	}
}

// Load reads RouterConfig from a JSON/YAML/TOML file at path via viper,
// falling back to defaults() for anything unset.
func Load(path string) (*RouterConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	cfg := defaults()
	v.SetDefault("default_upstream_protocol", cfg.DefaultUpstreamProtocol)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("pool_acquire_timeout_hint", cfg.PoolAcquireTimeoutHint)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogLevelValue maps the configured textual level to mosn.io/pkg/log's
// Level type, defaulting to ERROR on anything unrecognized.
func (c *RouterConfig) LogLevelValue() log.Level {
	switch c.LogLevel {
	case "DEBUG":
		return log.DEBUG
	case "INFO":
		return log.INFO
	case "WARN":
		return log.WARN
	case "FATAL":
		return log.FATAL
	default:
		return log.ERROR
	}
}

// ProtocolRegistry resolves the upstream protocol/transport pair for a
// cluster, defaulting to whatever the downstream connection used when a
// cluster has no override.
type ProtocolRegistry struct {
	defaultProtocol  types.Protocol
	defaultTransport types.Transport
	protocols        map[string]types.Protocol
	transports       map[string]types.Transport
}

func NewProtocolRegistry(defaultProtocol types.Protocol, defaultTransport types.Transport) *ProtocolRegistry {
	return &ProtocolRegistry{
		defaultProtocol:  defaultProtocol,
		defaultTransport: defaultTransport,
		protocols:        make(map[string]types.Protocol),
		transports:       make(map[string]types.Transport),
	}
}

func (r *ProtocolRegistry) SetClusterProtocol(clusterName string, p types.Protocol) {
	r.protocols[clusterName] = p
}

func (r *ProtocolRegistry) SetClusterTransport(clusterName string, t types.Transport) {
	r.transports[clusterName] = t
}

func (r *ProtocolRegistry) ProtocolFor(clusterName string) types.Protocol {
	if p, ok := r.protocols[clusterName]; ok {
		return p
	}
	return r.defaultProtocol
}

func (r *ProtocolRegistry) TransportFor(clusterName string) types.Transport {
	if t, ok := r.transports[clusterName]; ok {
		return t
	}
	return r.defaultTransport
}
