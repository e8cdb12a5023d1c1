package services

import (
	"context"

	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// mirrorSubmit forwards a record to the external ledger mirror. Strictly
// fail-open: mirror errors are logged and never affect the caller's result.
func mirrorSubmit(ctx context.Context, log *logger.Logger, mirror gateway.Ledger, kind types.TxKind, subjectKey string, record canonical.Encodable) {
	if mirror == nil {
		return
	}
	result, err := mirror.Submit(ctx, kind, subjectKey, record.CanonicalFields())
	if err != nil {
		log.Warn("External ledger mirror submit failed, continuing with local chain",
			"kind", kind, "subject_key", subjectKey, "error", err)
		return
	}
	if result.Accepted {
		log.Debug("External ledger mirror accepted transaction",
			"kind", kind, "subject_key", subjectKey, "external_reference", result.ExternalReference)
	}
}
