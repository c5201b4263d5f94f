// Copyright 2026 The CodeChain-Go Authors

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/kode-chain/codechain-go/pkg/blockchain"
	"github.com/kode-chain/codechain-go/pkg/client"
	"github.com/kode-chain/codechain-go/pkg/config"
	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/crypto/bls"
	"github.com/kode-chain/codechain-go/pkg/execution"
	ckeystore "github.com/kode-chain/codechain-go/pkg/keystore"
	"github.com/kode-chain/codechain-go/pkg/mempool"
	"github.com/kode-chain/codechain-go/pkg/metrics"
	"github.com/kode-chain/codechain-go/pkg/p2p"
	"github.com/kode-chain/codechain-go/pkg/sealer"
	"github.com/kode-chain/codechain-go/pkg/snapshot"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/tendermint"
	"github.com/kode-chain/codechain-go/pkg/types"
)

func newServerCommand() *cobra.Command {
	var configPath string
	var keystorePassphrase string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "run a validator node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cfg, keystorePassphrase)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "./config.yaml", "path to the node configuration file")
	cmd.Flags().StringVar(&keystorePassphrase, "keystore-passphrase", "", "passphrase protecting validator.key_path, when it is a Web3 keystore file (prompted if empty and needed)")
	return cmd
}

// runServer wires the node together:
// storage, state trie, blockchain index, consensus engine, importer,
// mempool, metrics, a block producer appropriate to the configured
// engine, and the Prometheus HTTP endpoint, then blocks until an
// interrupt or terminate signal.
func runServer(cfg *config.Config, keystorePassphrase string) error {
	logger.Info().Str("engine", cfg.Consensus.Engine).Str("data_dir", cfg.DataDir).Msg("starting node")

	backend, err := storage.OpenGoLevelDB("chaindata", cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open chain database: %w", err)
	}
	defer backend.Close()

	db := client.OpenHashDB(backend, 4096)

	idx, err := blockchain.Open(backend)
	if err != nil {
		return fmt.Errorf("open blockchain index: %w", err)
	}

	author, engine, err := buildEngine(cfg, keystorePassphrase)
	if err != nil {
		return fmt.Errorf("build consensus engine: %w", err)
	}

	peerFilter, discovery, extensions, err := buildP2P(cfg)
	if err != nil {
		return fmt.Errorf("build p2p filter/discovery: %w", err)
	}
	logger.Info().Str("discovery", discovery.Name()).Int("extensions", extensions.Len()).
		Bool("allow_enabled", cfg.P2P.AllowEnabled).
		Bool("deny_enabled", cfg.P2P.DenyEnabled).Str("listen_addr", cfg.P2P.ListenAddr).
		Msg("p2p filter and discovery table configured; no socket listener is started (the network transport is not wired in this build)")
	if !peerFilter.Permits(net.IPv4zero) {
		logger.Warn().Msg("p2p filter denies the default-route IP; inbound connections may be unexpectedly rejected once a listener exists")
	}

	handler := execution.NewHandlerRegistry()
	c := client.New(db, idx, engine, nil, handler)
	engine.RegisterClient(c)

	pool := mempool.New(c, cfg.Mempool.MaxSize, cfg.Mempool.MaxOldNonce)
	c.AttachPool(pool)

	c.AttachInvoiceStore(blockchain.NewInvoiceStore(backend))

	m := metrics.New()
	c.AttachMetrics(m)
	pool.SetRejectHook(func(reason string) {
		m.MempoolRejects.WithLabelValues(reason).Inc()
	})
	m.RegisterGauge("mempool_size", "Number of transactions currently tracked by the mempool.", func() float64 {
		return float64(pool.Len())
	})
	m.RegisterGauge("chain_height", "Height of the current best block.", func() float64 {
		return float64(idx.Best().Number)
	})

	if idx.Best().TotalScore == nil {
		if cfg.Network.GenesisPath == "" {
			return fmt.Errorf("network.genesis_path is required: no chain exists yet in %s", cfg.DataDir)
		}
		block, st, err := loadGenesis(cfg.Network.GenesisPath, db)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		if err := c.ImportGenesis(block, st); err != nil {
			return fmt.Errorf("import genesis: %w", err)
		}
		logger.Info().Msg("imported genesis block")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Snapshot.Enabled {
		snapDir := cfg.Snapshot.Dir
		if snapDir == "" {
			snapDir = filepath.Join(cfg.DataDir, "snapshots")
		}
		svc := snapshot.NewService(snapDir, db)
		svc.Start(ctx)
		defer svc.Stop()
		period := cfg.Snapshot.Period
		c.Notifier().Subscribe(blockchain.ChainNotifyFunc(func(route *blockchain.ImportRoute) {
			best := idx.Best()
			if best.Number == 0 || best.Number%period != 0 {
				return
			}
			header, err := idx.Header(best.Hash)
			if err != nil {
				return
			}
			svc.Notify(best.Hash, header.StateRoot)
		}))
		logger.Info().Str("dir", snapDir).Uint64("period", period).Msg("snapshot service started")
	}

	producer := startProducer(ctx, cfg, c, engine, pool, handler, author)
	if producer != nil {
		defer producer.Stop()
	}

	var httpSrv *http.Server
	if cfg.Monitoring.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		httpSrv = &http.Server{Addr: cfg.Monitoring.MetricsAddr, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
		logger.Info().Str("addr", cfg.Monitoring.MetricsAddr).Msg("metrics endpoint listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")

	if httpSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// producer is the narrow interface startProducer's three possible
// block-production strategies (Sealer, Miner, TendermintSealer) all
// satisfy.
type producer interface {
	Start(ctx context.Context)
	Stop()
}

// startProducer picks the block-production strategy matching
// cfg.Consensus.Engine and starts it; PoW's Miner searches nonces
// in-process (there is no stratum adapter for external workers here),
// and the tendermint engine's explicit vote cycle is driven by
// TendermintSealer (see its doc comment for the single-validator
// scope this drives without a wired network transport).
func startProducer(ctx context.Context, cfg *config.Config, c *client.Client, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry, author types.Address) producer {
	const tickInterval = 2 * time.Second

	var p producer
	switch cfg.Consensus.Engine {
	case "solo", "simple_poa":
		p = sealer.New(c, engine, pool, handler, author, tickInterval)
	case "pow":
		suite := sealer.SuiteBlake
		if cfg.Consensus.PowSuite == "cuckoo" {
			suite = sealer.SuiteCuckoo
		}
		p = sealer.NewMiner(c, engine, pool, handler, author, suite, tickInterval)
	case "tendermint":
		eng := engine.(*tendermint.Engine)
		vs, err := config.LoadValidatorSet(cfg.Consensus.ValidatorSetPath)
		if err != nil {
			logger.Error().Err(err).Msg("tendermint sealer: could not re-read validator set; not starting producer")
			return nil
		}
		roundTimeout := cfg.Consensus.TimeoutPropose.Duration() + cfg.Consensus.TimeoutPrevote.Duration() + cfg.Consensus.TimeoutPrecommit.Duration()
		p = sealer.NewTendermintSealer(c, eng, pool, handler, author, vs.Len(), roundTimeout)
	default:
		return nil
	}
	p.Start(ctx)
	return p
}

// buildEngine constructs the consensus.Engine selected by
// cfg.Consensus.Engine along with the address this node authors
// blocks as, loading whatever key material that engine needs.
func buildEngine(cfg *config.Config, keystorePassphrase string) (types.Address, consensus.Engine, error) {
	switch cfg.Consensus.Engine {
	case "solo":
		kp, err := loadValidatorKeyPair(cfg.Validator.KeyPath, keystorePassphrase)
		if err != nil {
			return types.Address{}, nil, err
		}
		author := types.Address(kp.Address())
		return author, consensus.NewSolo(author, new(big.Int).SetUint64(cfg.Consensus.BlockReward)), nil

	case "simple_poa":
		kp, err := loadValidatorKeyPair(cfg.Validator.KeyPath, keystorePassphrase)
		if err != nil {
			return types.Address{}, nil, err
		}
		author := types.Address(kp.Address())
		signers, err := parseAddressList(cfg.Consensus.Authors)
		if err != nil {
			return types.Address{}, nil, err
		}
		return author, consensus.NewSimplePoA(signers, kp), nil

	case "pow":
		kp, err := loadValidatorKeyPair(cfg.Validator.KeyPath, keystorePassphrase)
		if err != nil {
			return types.Address{}, nil, err
		}
		author := types.Address(kp.Address())
		reward := new(big.Int).SetUint64(cfg.Consensus.BlockReward)
		if cfg.Consensus.PowSuite == "cuckoo" {
			return author, consensus.NewCuckoo(author, reward), nil
		}
		return author, consensus.NewBlakePoW(author, reward), nil

	case "tendermint":
		vrfKey, err := loadOrGenerateVRFKey(cfg.Consensus.VRFKeyPath)
		if err != nil {
			return types.Address{}, nil, err
		}
		author := types.Address(vrfKey.Address())

		vs, err := config.LoadValidatorSet(cfg.Consensus.ValidatorSetPath)
		if err != nil {
			return types.Address{}, nil, err
		}

		signer, err := buildVoteSigner(cfg)
		if err != nil {
			return types.Address{}, nil, err
		}

		backendDir := filepath.Join(cfg.DataDir, "tendermint")
		backupBackend, err := storage.OpenGoLevelDB("tendermint_backup", backendDir)
		if err != nil {
			return types.Address{}, nil, fmt.Errorf("open tendermint backup store: %w", err)
		}

		eng := tendermint.NewEngine(vs, signer, vrfKey.Private, cfg.Consensus.SelfIndex, backupBackend, types.Hash{})
		if cfg.Consensus.SortitionExpectation > 0 {
			eng.SetSortition(&tendermint.Sortition{
				TotalPower:  vs.TotalVotingPower(),
				Expectation: cfg.Consensus.SortitionExpectation,
			})
		}
		return author, eng, nil

	default:
		return types.Address{}, nil, fmt.Errorf("unknown consensus engine %q", cfg.Consensus.Engine)
	}
}

// buildP2P constructs the CIDR allow/deny filter and the discovery
// table cfg.P2P selects, the two pieces of the p2p layer that don't
// require an actual socket listener to be meaningful. No peer
// connections are
// accepted or dialed here; a later revision that adds a real listener
// would hand every accepted/dialed connection through peerFilter
// before the handshake and feed discovered peers into discovery.
func buildP2P(cfg *config.Config) (*p2p.Filter, p2p.Extension, *p2p.Registry, error) {
	filter := p2p.NewFilter()
	filter.EnableAllow(cfg.P2P.AllowEnabled)
	for _, cidr := range cfg.P2P.AllowCIDRs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("p2p.allow_cidrs: %w", err)
		}
		filter.AddAllow(ipnet)
	}
	filter.EnableDeny(cfg.P2P.DenyEnabled)
	for _, cidr := range cfg.P2P.DenyCIDRs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("p2p.deny_cidrs: %w", err)
		}
		filter.AddDeny(ipnet)
	}

	self := p2p.NodeID(crypto.Blake256([]byte(cfg.P2P.ListenAddr)))
	var discovery p2p.Extension
	if cfg.P2P.Discovery == "kademlia" {
		discovery = p2p.NewKademliaDiscovery(self, cfg.P2P.MaxPeers)
	} else {
		discovery = p2p.NewUnstructuredDiscovery(self, cfg.P2P.MaxPeers, 30*time.Second)
	}
	registry := p2p.NewRegistry()
	registry.Register(discovery)
	return filter, discovery, registry, nil
}

// buildVoteSigner loads the tendermint engine's vote-signing key under
// cfg.Validator.Scheme, ed25519 by default or bls when configured.
func buildVoteSigner(cfg *config.Config) (tendermint.Signer, error) {
	switch cfg.Validator.Scheme {
	case "bls":
		km := bls.NewKeyManager(cfg.Validator.KeyPath)
		if err := km.LoadOrGenerateKey(); err != nil {
			return nil, fmt.Errorf("load bls vote key: %w", err)
		}
		return tendermint.NewBLSSigner(km.PrivateKey()), nil
	default:
		kp, err := loadOrGenerateEd25519Key(cfg.Validator.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load ed25519 vote key: %w", err)
		}
		return tendermint.NewEd25519Signer(kp), nil
	}
}

// loadValidatorKeyPair loads the secp256k1 signing key Solo/SimplePoA/
// PoW seal with: a Web3 Secret Storage key file if keyPath decodes as
// one, a raw hex private key otherwise (the same convenience
// cmd/codechain/account.go's import-raw command offers).
func loadValidatorKeyPair(keyPath, passphrase string) (*crypto.KeyPair, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read validator key %s: %w", keyPath, err)
	}
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "{") {
		if passphrase == "" {
			pass, err := promptPassphrase("validator key passphrase: ")
			if err != nil {
				return nil, err
			}
			passphrase = pass
		}
		return ckeystore.Load(keyPath, passphrase)
	}

	priv, err := gethcrypto.HexToECDSA(strings.TrimPrefix(trimmed, "0x"))
	if err != nil {
		return nil, fmt.Errorf("validator key %s: %w", keyPath, err)
	}
	return &crypto.KeyPair{Private: priv}, nil
}

// parseAddressList hex-decodes a SimplePoA signer list from config.
func parseAddressList(hexAddrs []string) ([]types.Address, error) {
	addrs := make([]types.Address, len(hexAddrs))
	for i, s := range hexAddrs {
		raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil || len(raw) != types.AddressLength {
			return nil, fmt.Errorf("consensus.authors[%d]: invalid address %q", i, s)
		}
		copy(addrs[i][:], raw)
	}
	return addrs, nil
}
