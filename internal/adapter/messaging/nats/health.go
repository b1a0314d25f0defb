package nats

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
)

type statusReporter interface {
	Status() natsgo.Status
}

// HealthCheck implements ports.HealthChecker for NATS.
type HealthCheck struct {
	conn statusReporter
}

// NewHealthCheck creates a NATS health checker.
func NewHealthCheck(conn *natsgo.Conn) *HealthCheck {
	return &HealthCheck{conn: conn}
}

// Ping reports an error unless the connection is established.
func (h *HealthCheck) Ping(_ context.Context) error {
	if status := h.conn.Status(); status != natsgo.CONNECTED {
		return fmt.Errorf("nats connection %s", status)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "nats"
}
