// Copyright 2026 Simperby Authors

package ports

import "time"

// Peer is one address this node gossips DMS packets and Git refs with.
type Peer struct {
	Name string
	URL  string
}

// ClientNetworkConfig governs the outbound half of gossip: which peers
// to poll, and how often.
type ClientNetworkConfig struct {
	Peers         []Peer
	FetchInterval time.Duration
	RequestTimeout time.Duration
}

// ServerNetworkConfig governs the inbound half: where this node's DMS
// and push endpoints listen.
type ServerNetworkConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}
