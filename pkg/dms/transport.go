// Copyright 2026 Simperby Authors
//
// HTTP gossip transport for a DMS Set, modeled on the request/response
// and handler shape of an attestation-collection service: a small JSON
// protocol, a bounded-timeout client fanning a request out to peers in
// parallel, and a handler type that can be mounted on any mux.

package dms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/simperby-go/simperby/pkg/errs"
)

// GetMessagePath is the route a Server mounts its handler on, per the
// external-interface "POST /dms/get_message" convention.
const GetMessagePath = "/dms/get_message"

// GetMessageRequest asks a peer for its full snapshot of a DMS key.
type GetMessageRequest struct {
	DMSKey string `json:"dms_key"`
}

// GetMessageResponse carries a peer's snapshot back, as raw JSON
// packets: the server is generic over M, but the wire format is not,
// so callers decode Packets into their own []Packet[M].
type GetMessageResponse struct {
	DMSKey  string          `json:"dms_key"`
	Packets json.RawMessage `json:"packets"`
}

// Server exposes a Set[M] over HTTP for peer synchronization.
type Server[M any] struct {
	set    *Set[M]
	logger *log.Logger
}

// NewServer wraps set for HTTP serving. A nil logger defaults to a
// bracket-prefixed logger on the standard logger's writer.
func NewServer[M any](set *Set[M], logger *log.Logger) *Server[M] {
	if logger == nil {
		logger = log.New(log.Writer(), "[DMS] ", log.LstdFlags)
	}
	return &Server[M]{set: set, logger: logger}
}

// ServeHTTP implements the get_message RPC: POST a GetMessageRequest,
// receive every packet currently held for that DMS key.
func (s *Server[M]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GetMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DMSKey != s.set.cfg.DMSKey {
		writeJSONError(w, fmt.Sprintf("unknown dms_key %q", req.DMSKey), http.StatusNotFound)
		return
	}

	packets := s.set.ReadMessages()
	raw, err := json.Marshal(packets)
	if err != nil {
		s.logger.Printf("marshal packets for %s: %v", req.DMSKey, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(GetMessageResponse{DMSKey: req.DMSKey, Packets: raw})
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Client fetches remote snapshots from a fixed set of peer endpoints
// and folds them into a local Set via Sync.
type Client[M any] struct {
	peers      []string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient builds a Client that talks to peers (base URLs, no path)
// with the given per-request timeout.
func NewClient[M any](peers []string, timeout time.Duration, logger *log.Logger) *Client[M] {
	if logger == nil {
		logger = log.New(log.Writer(), "[DMS] ", log.LstdFlags)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client[M]{peers: peers, httpClient: &http.Client{Timeout: timeout}, logger: logger}
}

// Sync fetches every peer's snapshot for dmsKey in parallel and merges
// each into set. Per-peer failures are logged, not returned: DMS
// synchronization is best-effort by design (eventual consistency).
func (c *Client[M]) Sync(set *Set[M], dmsKey string) {
	var wg sync.WaitGroup
	for _, peer := range c.peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			packets, err := c.fetch(peer, dmsKey)
			if err != nil {
				c.logger.Printf("sync with %s failed: %v", peer, err)
				return
			}
			set.Sync(packets)
		}(peer)
	}
	wg.Wait()
}

func (c *Client[M]) fetch(peer, dmsKey string) ([]Packet[M], error) {
	body, err := json.Marshal(GetMessageRequest{DMSKey: dmsKey})
	if err != nil {
		return nil, errs.Wrap(errs.Format, "dms.Client.fetch", "marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(peer+GetMessagePath, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.Network, "dms.Client.fetch", "request to %s: %w", peer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.Network, "dms.Client.fetch", fmt.Errorf("peer %s returned status %d", peer, resp.StatusCode))
	}

	var wire GetMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, errs.Wrap(errs.Format, "dms.Client.fetch", "decode response: %w", err)
	}

	var packets []Packet[M]
	if err := json.Unmarshal(wire.Packets, &packets); err != nil {
		return nil, errs.Wrap(errs.Format, "dms.Client.fetch", "decode packets: %w", err)
	}
	return packets, nil
}
