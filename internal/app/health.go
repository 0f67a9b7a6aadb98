package app

import (
	"sync/atomic"

	"github.com/florianilch/claude3-provider/internal/proxy"
)

// Health holds the readiness reported on /health/readiness. It is false until the
// server listens and again once shutdown begins, so load balancers drain the instance
// before connections close.
type Health struct {
	ready atomic.Bool
}

// Compile-time check that Health implements proxy.ReadinessChecker interface
var _ proxy.ReadinessChecker = (*Health)(nil)

func NewHealth() *Health {
	return &Health{}
}

func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) IsReady() bool {
	return h.ready.Load()
}
