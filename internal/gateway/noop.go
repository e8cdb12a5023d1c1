package gateway

import (
	"context"
	"time"

	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// NoopLedger stands in when no mirror network is configured. Submits succeed
// locally without doing anything, so the write path does not branch on the
// gateway's presence.
type NoopLedger struct{}

func NewNoopLedger() *NoopLedger {
	return &NoopLedger{}
}

func (n *NoopLedger) Submit(ctx context.Context, kind types.TxKind, subjectKey string, payload map[string]any) (*SubmitResult, error) {
	return &SubmitResult{Accepted: false}, nil
}

func (n *NoopLedger) Query(ctx context.Context, subjectKey string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (n *NoopLedger) Status(ctx context.Context) *NetworkStatus {
	return &NetworkStatus{
		Network:   "none",
		Status:    "not configured",
		CheckedAt: time.Now().UTC(),
	}
}
