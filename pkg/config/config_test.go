// Copyright 2026 The CodeChain-Go Authors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
environment: development
data_dir: ${DATA_DIR:-./data}
network:
  id: "tc"
consensus:
  engine: solo
  block_reward: 10
validator:
  key_path: ./validator.json
`

func TestLoadAppliesDefaultsAndSubstitutesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("DATA_DIR", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "solo", cfg.Consensus.Engine)
	require.Equal(t, uint64(10), cfg.Consensus.BlockReward)
	require.Equal(t, 50, cfg.P2P.MaxPeers)
	require.Equal(t, "unstructured", cfg.P2P.Discovery)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Consensus.Engine = "nonsense"
	cfg.Validator.KeyPath = "./validator.json"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresAuthorsForSimplePoA(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Consensus.Engine = "simple_poa"
	cfg.Validator.KeyPath = "./validator.json"
	require.Error(t, cfg.Validate())
}

func TestEnvVarSubstitutionDefault(t *testing.T) {
	t.Setenv("CUSTOM_NET", "")
	expanded := substituteEnvVars("network: ${CUSTOM_NET:-mynet}")
	require.Equal(t, "network: mynet", expanded)
}
