// Package config defines the in-memory configuration shapes a host builds
// before wiring up transports, auth providers, and the orchestrator. There
// is no bundled file loader; callers populate these structs however they
// like (flags, YAML, a database row) and the yaml tags exist so a host that
// does choose to decode YAML gets the field names for free.
package config

import "time"

// LocalServer describes an MCP server launched as a local subprocess over
// stdio.
type LocalServer struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// RemoteServer describes an MCP server reached over HTTP/SSE.
type RemoteServer struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`

	// AuthType selects which Provider to build: "bearer", "apiKey",
	// "basic", or "oauth". Empty means probe environment variables per
	// the fallback rules in ResolveAuth.
	AuthType string `yaml:"auth_type,omitempty"`

	// AuthConfig carries AuthType-specific settings (e.g. {"header":
	// "X-Api-Key"} for apiKey, or OAuth client metadata).
	AuthConfig map[string]string `yaml:"auth_config,omitempty"`

	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty"`
	RequestTimeout    time.Duration `yaml:"request_timeout,omitempty"`
	MaxRetries        int           `yaml:"max_retries,omitempty"`
	ClientID          string        `yaml:"client_id,omitempty"`
}

// GlobalEnv is merged under each LocalServer's Env before launch; the
// server's own entries win on key conflicts.
type GlobalEnv map[string]string

// MergeInto layers g under serverEnv, returning a new map. Keys already
// present in serverEnv are left untouched.
func (g GlobalEnv) MergeInto(serverEnv map[string]string) map[string]string {
	merged := make(map[string]string, len(g)+len(serverEnv))
	for k, v := range g {
		merged[k] = v
	}
	for k, v := range serverEnv {
		merged[k] = v
	}
	return merged
}

// Orchestrator configures the agentic loop's generation parameters and
// which tool sources it draws on.
type Orchestrator struct {
	StreamingEnabled bool `yaml:"streaming_enabled"`
	MCPEnabled       bool `yaml:"mcp_enabled"`
	A2AEnabled       bool `yaml:"a2a_enabled"`

	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`

	AdditionalParameters map[string]string `yaml:"additional_parameters,omitempty"`

	// MaxAgenticIterations caps the orchestrator loop. Zero means the
	// orchestrator package's own default applies.
	MaxAgenticIterations int `yaml:"max_agentic_iterations,omitempty"`
}

// Config is the root shape a host assembles before building a runtime: the
// MCP servers it connects to, a shared environment, and the orchestrator's
// generation settings.
type Config struct {
	LocalServers  []LocalServer  `yaml:"local_servers,omitempty"`
	RemoteServers []RemoteServer `yaml:"remote_servers,omitempty"`
	GlobalEnv     GlobalEnv      `yaml:"global_env,omitempty"`
	Orchestrator  Orchestrator   `yaml:"orchestrator,omitempty"`
}

// SetDefaults fills zero-valued fields a host typically wants populated,
// matching the orchestrator package's own defaults so a Config built with
// SetDefaults and one left zero-valued behave the same way.
func (c *Config) SetDefaults() {
	if c.Orchestrator.MaxAgenticIterations == 0 {
		c.Orchestrator.MaxAgenticIterations = 10
	}
}

// LocalServerEnv returns server's Env merged under c.GlobalEnv, per the
// "server wins on conflict" rule.
func (c *Config) LocalServerEnv(server LocalServer) map[string]string {
	return c.GlobalEnv.MergeInto(server.Env)
}
