// Copyright 2026 Simperby Authors

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simperby-go/simperby/pkg/ports"
	"github.com/simperby-go/simperby/pkg/ports/httpnetwork"
)

func TestNode_ServesMetricsAndNotifyPush(t *testing.T) {
	net := httpnetwork.NewServer(ports.ServerNetworkConfig{ListenAddress: "127.0.0.1:0"}, nil)
	reg := prometheus.NewRegistry()
	node := New(net, reg, nil)
	node.Metrics.DMSPacketsAccepted.Inc()

	var gotBranch, gotTip string
	node.MountNotifyPush(func(branch, tip string) {
		gotBranch, gotTip = branch, tip
	})

	srv := httptest.NewServer(net.Mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}

	client := httpnetwork.NewClient(ports.ClientNetworkConfig{
		Peers: []ports.Peer{{Name: "self", URL: srv.URL}},
	}, nil)
	client.NotifyPush(context.Background(), NotifyPushPath, "main", "abc123")

	if gotBranch != "main" || gotTip != "abc123" {
		t.Errorf("expected (main, abc123), got (%s, %s)", gotBranch, gotTip)
	}
}

func TestNode_MountDMS(t *testing.T) {
	net := httpnetwork.NewServer(ports.ServerNetworkConfig{ListenAddress: "127.0.0.1:0"}, nil)
	reg := prometheus.NewRegistry()
	node := New(net, reg, nil)

	node.MountDMS("/dms/get_message", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	srv := httptest.NewServer(net.Mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/dms/get_message", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected mounted handler to respond, got %d", resp.StatusCode)
	}
}
