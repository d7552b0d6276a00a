// Copyright 2026 Simperby Authors

package nodeconfig

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:8080" {
		t.Errorf("expected default ListenAddr, got %q", cfg.ListenAddr)
	}
	if cfg.DMSAggregateCommit {
		t.Errorf("expected DMSAggregateCommit to default false")
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	os.Setenv("SIMPERBY_CHAIN_NAME", "test-chain")
	os.Setenv("SIMPERBY_PEERS", "http://a, http://b ,")
	defer os.Unsetenv("SIMPERBY_CHAIN_NAME")
	defer os.Unsetenv("SIMPERBY_PEERS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChainName != "test-chain" {
		t.Errorf("expected ChainName test-chain, got %q", cfg.ChainName)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0] != "http://a" || cfg.Peers[1] != "http://b" {
		t.Errorf("expected trimmed 2-peer list, got %v", cfg.Peers)
	}
}

func TestValidate_RequiresChainNameKeyPathAndDMSKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate to fail on an empty config")
	}

	cfg = &Config{ChainName: "c", Ed25519KeyPath: "/tmp/key", DMSKey: "dms"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected Validate to pass with required fields set, got %v", err)
	}
}
