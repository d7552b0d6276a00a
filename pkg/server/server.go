// Copyright 2026 Simperby Authors
//
// Package server assembles a Simperby node's HTTP surface: the DMS
// get_message RPC, the distributed repository protocol's push
// notification RPC, and a Prometheus /metrics endpoint - all mounted
// on one shared mux.
package server

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simperby-go/simperby/pkg/ports/httpnetwork"
)

// NotifyPushPath is the route a Node mounts its push-notification
// handler on.
const NotifyPushPath = "/repository/notify_push"

// Node wires one node's HTTP-facing subsystems onto a single
// *httpnetwork.Server: DMS gossip, repository push notifications, and
// metrics.
type Node struct {
	net     *httpnetwork.Server
	Metrics *Metrics
	logger  *log.Logger
}

// New builds a Node around net and registers the metrics endpoint
// immediately. reg is both where Metrics' counters register and what
// /metrics serves; pass a fresh *prometheus.Registry per node (tests
// should never share prometheus.DefaultRegisterer, which panics on a
// second registration of the same counter name). Callers mount the DMS
// and push handlers themselves via MountDMS/MountNotifyPush once their
// DMS Set and repository exist, since server has no business knowing
// their concrete message type.
func New(net *httpnetwork.Server, reg *prometheus.Registry, logger *log.Logger) *Node {
	if logger == nil {
		logger = log.New(log.Writer(), "[server] ", log.LstdFlags)
	}
	n := &Node{net: net, Metrics: NewMetrics(reg), logger: logger}
	n.net.Mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return n
}

// MountDMS mounts a DMS server's get_message handler at path.
func (n *Node) MountDMS(path string, handler http.Handler) {
	n.net.Mux.Handle(path, handler)
}

// MountNotifyPush mounts a repository push-notification handler that
// calls onPush(branch, tip) whenever a peer reports its tip moved.
func (n *Node) MountNotifyPush(onPush func(branch, tip string)) {
	n.net.Mux.HandleFunc(NotifyPushPath, httpnetwork.NotifyPushHandler(onPush, n.logger))
}

// ListenAndServe blocks serving the node's mux until ctx is cancelled.
func (n *Node) ListenAndServe(ctx context.Context) error {
	return n.net.ListenAndServe(ctx)
}
