// Copyright 2026 The CodeChain-Go Authors

// Package config loads a node's YAML configuration file: plain struct
// tags, ${VAR_NAME} environment substitution before parsing, and a
// post-load defaults pass rather than defaults baked into the zero
// value.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// Config is a node's full runtime configuration.
type Config struct {
	Environment string `yaml:"environment"`

	DataDir string `yaml:"data_dir"`

	Network    NetworkConfig    `yaml:"network"`
	Consensus  ConsensusConfig  `yaml:"consensus"`
	P2P        P2PConfig        `yaml:"p2p"`
	Mempool    MempoolConfig    `yaml:"mempool"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
}

// NetworkConfig identifies which chain this node joins.
type NetworkConfig struct {
	ID          string `yaml:"id"` // two-character network id, e.g. "cc" or "tc"
	GenesisPath string `yaml:"genesis_path"`
}

// ConsensusConfig selects and configures the engine.
type ConsensusConfig struct {
	// Engine is one of "solo", "simple_poa", "pow", "tendermint".
	Engine string `yaml:"engine"`

	// SimplePoA / PoW / Tendermint sub-configuration, only the
	// section matching Engine is consulted.
	Authors       []string `yaml:"authors"`        // simple_poa authorized author addresses
	BlockReward   uint64   `yaml:"block_reward"`   // solo / pow reward per block
	PowSuite      string   `yaml:"pow_suite"`      // "blake" or "cuckoo"
	PowDifficulty uint64   `yaml:"pow_difficulty"` // pow target bit difficulty

	ValidatorSetPath string   `yaml:"validator_set_path"` // tendermint genesis validator set JSON
	SelfIndex        int      `yaml:"self_index"`         // this node's index into the validator set
	VRFKeyPath       string   `yaml:"vrf_key_path"`       // tendermint proposer-selection VRF key
	TimeoutPropose   Duration `yaml:"timeout_propose"`
	TimeoutPrevote   Duration `yaml:"timeout_prevote"`
	TimeoutPrecommit Duration `yaml:"timeout_precommit"`

	// SortitionExpectation switches tendermint proposer selection from
	// round-robin to VRF priority sortition: the expected number of
	// sub-users drawn per round across the whole validator set. Zero
	// keeps round-robin.
	SortitionExpectation float64 `yaml:"sortition_expectation"`
}

// P2PConfig configures the session/discovery layer.
type P2PConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	MaxPeers   int    `yaml:"max_peers"`

	Discovery string `yaml:"discovery"` // "unstructured" or "kademlia"

	AllowEnabled bool     `yaml:"allow_enabled"`
	AllowCIDRs   []string `yaml:"allow_cidrs"`
	DenyEnabled  bool     `yaml:"deny_enabled"`
	DenyCIDRs    []string `yaml:"deny_cidrs"`
}

// MempoolConfig bounds the pending-transaction pool.
type MempoolConfig struct {
	MaxSize     int `yaml:"max_size"`
	MaxOldNonce int `yaml:"max_old_nonce"` // terminal-state records kept per owner for RPC queries
}

// ValidatorConfig locates the signing identity this node seals with.
type ValidatorConfig struct {
	KeyPath string `yaml:"key_path"`
	Scheme  string `yaml:"scheme"` // "ed25519" or "bls" (tendermint engine only)
}

// LoggingConfig configures the zerolog sink.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// MonitoringConfig configures the Prometheus exporter.
type MonitoringConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsAddr    string `yaml:"metrics_addr"`
}

// SnapshotConfig schedules periodic chunked state snapshots.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`    // defaults to <data_dir>/snapshots
	Period  uint64 `yaml:"period"` // snapshot every Period blocks
}

// Duration wraps time.Duration so config files write "3s" rather than
// a raw nanosecond integer.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := groups[1]
		def := ""
		if len(groups) >= 4 {
			def = groups[3]
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
		return def
	})
}

// Load reads path, substitutes ${VAR} references against the process
// environment, parses the result as YAML, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Network.ID == "" {
		c.Network.ID = "tc"
	}
	if c.Consensus.Engine == "" {
		c.Consensus.Engine = "solo"
	}
	if c.Consensus.PowSuite == "" {
		c.Consensus.PowSuite = "blake"
	}
	if c.Consensus.BlockReward == 0 {
		c.Consensus.BlockReward = 5
	}
	if c.Consensus.TimeoutPropose == 0 {
		c.Consensus.TimeoutPropose = Duration(3 * time.Second)
	}
	if c.Consensus.TimeoutPrevote == 0 {
		c.Consensus.TimeoutPrevote = Duration(1 * time.Second)
	}
	if c.Consensus.TimeoutPrecommit == 0 {
		c.Consensus.TimeoutPrecommit = Duration(1 * time.Second)
	}
	if c.P2P.ListenAddr == "" {
		c.P2P.ListenAddr = "0.0.0.0:3485"
	}
	if c.P2P.MaxPeers == 0 {
		c.P2P.MaxPeers = 50
	}
	if c.P2P.Discovery == "" {
		c.P2P.Discovery = "unstructured"
	}
	if c.Mempool.MaxSize == 0 {
		c.Mempool.MaxSize = 8192
	}
	if c.Mempool.MaxOldNonce == 0 {
		c.Mempool.MaxOldNonce = 64
	}
	if c.Validator.Scheme == "" {
		c.Validator.Scheme = "ed25519"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Monitoring.MetricsAddr == "" {
		c.Monitoring.MetricsAddr = "127.0.0.1:9090"
	}
	if c.Snapshot.Period == 0 {
		c.Snapshot.Period = 1024
	}
}

// Validate reports configuration errors that applyDefaults cannot
// paper over: the network id must be a real two-byte tag, the engine
// name must be known, and a tendermint engine must carry a validator
// set.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Network.ID) != 2 {
		errs = append(errs, "network.id must be exactly two characters")
	}
	switch c.Consensus.Engine {
	case "solo", "simple_poa", "pow", "tendermint":
	default:
		errs = append(errs, fmt.Sprintf("consensus.engine %q is not one of solo, simple_poa, pow, tendermint", c.Consensus.Engine))
	}
	if c.Consensus.Engine == "simple_poa" && len(c.Consensus.Authors) == 0 {
		errs = append(errs, "consensus.authors is required for the simple_poa engine")
	}
	if c.Consensus.Engine == "tendermint" {
		if c.Consensus.ValidatorSetPath == "" {
			errs = append(errs, "consensus.validator_set_path is required for the tendermint engine")
		}
		if c.Consensus.VRFKeyPath == "" {
			errs = append(errs, "consensus.vrf_key_path is required for the tendermint engine")
		}
	}
	if c.Consensus.Engine == "pow" {
		switch c.Consensus.PowSuite {
		case "blake", "cuckoo", "":
		default:
			errs = append(errs, fmt.Sprintf("consensus.pow_suite %q is not one of blake, cuckoo", c.Consensus.PowSuite))
		}
	}
	if c.Validator.KeyPath == "" {
		errs = append(errs, "validator.key_path is required")
	}
	switch c.Validator.Scheme {
	case "ed25519", "bls":
	default:
		errs = append(errs, fmt.Sprintf("validator.scheme %q is not one of ed25519, bls", c.Validator.Scheme))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NetworkID converts the configured two-character tag to a
// types.NetworkID.
func (c *Config) NetworkID() types.NetworkID {
	return types.NewNetworkID(c.Network.ID)
}
