// Copyright 2026 Simperby Authors
//
// simperbyd is a minimal node entrypoint: load configuration and the
// node's identity key, open local storage, bring up the HTTP surface
// (DMS gossip, repository push notifications, metrics), and run until
// signalled to stop. Git plumbing (a concrete ports.RawRepository) is
// a separate concern supplied by deployment tooling, not this binary -
// the Raw Repository port stays interface-only per the module's scope.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/dms"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/nodeconfig"
	"github.com/simperby-go/simperby/pkg/ports"
	"github.com/simperby-go/simperby/pkg/ports/filestorage"
	"github.com/simperby-go/simperby/pkg/ports/httpnetwork"
	"github.com/simperby-go/simperby/pkg/server"
)

type nopChecker struct{}

func (nopChecker) Check(domain.Transaction) error { return nil }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simperbyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := nodeconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := log.New(log.Writer(), "[simperbyd] ", log.LstdFlags)

	sk, err := loadOrGenerateIdentity(cfg.Ed25519KeyPath)
	if err != nil {
		return fmt.Errorf("load identity key: %w", err)
	}
	logger.Printf("node identity: %s", sk.PublicKey())

	if err := os.MkdirAll(cfg.StorageDir, 0700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	storage, err := filestorage.Open(cfg.StorageDir, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storage.Close()

	netServer := httpnetwork.NewServer(ports.ServerNetworkConfig{ListenAddress: cfg.ListenAddr}, logger)
	node := server.New(netServer, prometheus.NewRegistry(), logger)

	txSet := dms.New(dms.Config{DMSKey: cfg.DMSKey}, domain.Transaction.ToHash256, nopChecker{})
	node.MountDMS(dms.GetMessagePath, dms.NewServer(txSet, logger))
	node.MountNotifyPush(func(branch, tip string) {
		logger.Printf("peer announced %s -> %s", branch, tip)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(cfg.Peers) > 0 {
		dmsClient := dms.NewClient[domain.Transaction](cfg.Peers, 10*time.Second, logger)
		go runGossipLoop(ctx, dmsClient, txSet, cfg.DMSKey, node.Metrics)
	}

	logger.Printf("listening on %s", cfg.ListenAddr)
	return node.ListenAndServe(ctx)
}

// runGossipLoop periodically pulls peer snapshots into set, the
// background half of the get_message RPC node.MountDMS answers for
// peers pulling from us.
func runGossipLoop(ctx context.Context, client *dms.Client[domain.Transaction], set *dms.Set[domain.Transaction], dmsKey string, metrics *server.Metrics) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := set.Len()
			client.Sync(set, dmsKey)
			if after := set.Len(); after > before {
				metrics.DMSPacketsAccepted.Add(float64(after - before))
			}
		}
	}
}

func loadOrGenerateIdentity(path string) (crypto.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(filepath.Dir(path), 0700); mkErr != nil {
				return crypto.PrivateKey{}, fmt.Errorf("create key dir: %w", mkErr)
			}
			_, sk := crypto.GenerateKeyPair()
			if writeErr := os.WriteFile(path, sk.Bytes(), 0600); writeErr != nil {
				return crypto.PrivateKey{}, fmt.Errorf("persist generated key: %w", writeErr)
			}
			return sk, nil
		}
		return crypto.PrivateKey{}, err
	}
	return crypto.PrivateKeyFromBytes(b)
}
