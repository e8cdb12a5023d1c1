// Package gateway mirrors chain activity to an external distributed-ledger
// network reached through its vendor CLI. The mirror is strictly optional:
// every caller treats it fail-open, the local chain is authoritative.
package gateway

import (
	"context"
	"time"

	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type SubmitResult struct {
	Accepted          bool   `json:"accepted"`
	ExternalReference string `json:"external_reference,omitempty"`
}

type NetworkStatus struct {
	Network   string    `json:"network"`
	Channel   string    `json:"channel,omitempty"`
	Chaincode string    `json:"chaincode,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Ledger is the narrow capability the core needs from the mirror network.
// The core functions correctly with this gateway absent or failing.
type Ledger interface {
	Submit(ctx context.Context, kind types.TxKind, subjectKey string, payload map[string]any) (*SubmitResult, error)
	Query(ctx context.Context, subjectKey string) (map[string]any, error)
	Status(ctx context.Context) *NetworkStatus
}
