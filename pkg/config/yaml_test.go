package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
local_servers:
  - name: fs
    command: mcp-server-fs
    args: ["--root", "/data"]
global_env:
  LOG_LEVEL: info
orchestrator:
  streaming_enabled: true
  mcp_enabled: true
`

func TestLoadYAMLParsesAndAppliesDefaults(t *testing.T) {
	cfg, err := LoadYAML([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.LocalServers, 1)
	assert.Equal(t, "fs", cfg.LocalServers[0].Name)
	assert.Equal(t, []string{"--root", "/data"}, cfg.LocalServers[0].Args)
	assert.Equal(t, "info", cfg.GlobalEnv["LOG_LEVEL"])
	assert.True(t, cfg.Orchestrator.StreamingEnabled)
	assert.Equal(t, 10, cfg.Orchestrator.MaxAgenticIterations)
}

func TestLoadYAMLRejectsMalformedInput(t *testing.T) {
	_, err := LoadYAML([]byte("local_servers: [this is not valid: yaml: at all"))
	assert.Error(t, err)
}

func TestConfigRoundTripsThroughYAML(t *testing.T) {
	original := Config{
		LocalServers: []LocalServer{{Name: "fs", Command: "mcp-server-fs"}},
		GlobalEnv:    GlobalEnv{"KEY": "value"},
	}
	original.SetDefaults()

	data, err := original.ToYAML()
	require.NoError(t, err)

	parsed, err := LoadYAML(data)
	require.NoError(t, err)

	assert.Equal(t, original.LocalServers, parsed.LocalServers)
	assert.Equal(t, original.GlobalEnv, parsed.GlobalEnv)
	assert.Equal(t, original.Orchestrator.MaxAgenticIterations, parsed.Orchestrator.MaxAgenticIterations)
}
