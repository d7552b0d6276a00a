// Copyright 2026 Simperby Authors
//
// Package httpnetwork is the concrete ports.Network adapter: a
// bounded-timeout http.Client fanning requests out to a fixed peer
// list via sync.WaitGroup, and an http.Server built from
// ServerNetworkConfig.
package httpnetwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/simperby-go/simperby/pkg/errs"
	"github.com/simperby-go/simperby/pkg/ports"
)

// Server wraps an http.Server configured from a ServerNetworkConfig. It
// is a thin lifecycle wrapper - callers register their own handlers on
// Mux before calling ListenAndServe.
type Server struct {
	Mux    *http.ServeMux
	server *http.Server
	logger *log.Logger
}

// NewServer builds a Server listening per cfg. Handlers (the DMS
// get_message endpoint, the repository push/notify endpoints) are
// registered on Mux by the caller before ListenAndServe runs.
func NewServer(cfg ports.ServerNetworkConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[network] ", log.LstdFlags)
	}
	mux := http.NewServeMux()
	return &Server{
		Mux:    mux,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// ListenAndServe blocks serving cfg.ListenAddress until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errs.Wrap(errs.Network, s.server.Addr, "listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Printf("shutting down %s", s.server.Addr)
		if err := s.server.Shutdown(context.Background()); err != nil {
			return errs.Wrap(errs.Network, s.server.Addr, "shutdown: %w", err)
		}
		return nil
	}
}

// Client dials a fixed set of peers with one shared timeout.
type Client struct {
	peers      []ports.Peer
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient builds a Client from a ClientNetworkConfig.
func NewClient(cfg ports.ClientNetworkConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[network] ", log.LstdFlags)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		peers:      cfg.Peers,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Peers returns the configured peer list.
func (c *Client) Peers() []ports.Peer { return c.peers }

// PostJSON posts body as JSON to path on every configured peer in
// parallel and calls decode with each peer's response; it returns
// nothing, and peers that fail are logged. Used for fire-and-forget fan-outs such as
// announcing a new branch tip - callers that need a single
// authoritative response should dial one peer directly instead.
func (c *Client) PostJSON(ctx context.Context, path string, body any, decode func(peer ports.Peer, r *http.Response) error) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Printf("marshal request for %s: %v", path, err)
		return
	}

	var wg sync.WaitGroup
	for _, peer := range c.peers {
		wg.Add(1)
		go func(peer ports.Peer) {
			defer wg.Done()
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer.URL+path, bytes.NewReader(payload))
			if err != nil {
				c.logger.Printf("build request to %s: %v", peer.Name, err)
				return
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Printf("request to %s failed: %v", peer.Name, err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				c.logger.Printf("peer %s returned status %d", peer.Name, resp.StatusCode)
				return
			}
			if decode != nil {
				if err := decode(peer, resp); err != nil {
					c.logger.Printf("decode response from %s: %v", peer.Name, err)
				}
			}
		}(peer)
	}
	wg.Wait()
}

// NotifyPushRequest is the body of the distributed repository
// protocol's push-notification RPC: "my tip of branch moved to this
// commit, you may want to fetch."
type NotifyPushRequest struct {
	Branch string `json:"branch"`
	Tip    string `json:"tip"`
}

// NotifyPush fans NotifyPushRequest out to every peer, mirroring
// `DistributedRepository::notify_push` from the source material.
func (c *Client) NotifyPush(ctx context.Context, path, branch, tip string) {
	c.PostJSON(ctx, path, NotifyPushRequest{Branch: branch, Tip: tip}, nil)
}

// NotifyPushHandler builds an http.HandlerFunc that decodes a
// NotifyPushRequest and invokes onPush - the server-side half of
// NotifyPush, kept here so both ends of the RPC share one wire type.
func NotifyPushHandler(onPush func(branch, tip string), logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.New(log.Writer(), "[network] ", log.LstdFlags)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req NotifyPushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("invalid body: %v", err)})
			return
		}
		onPush(req.Branch, req.Tip)
		w.WriteHeader(http.StatusOK)
	}
}
