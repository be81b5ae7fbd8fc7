package server

import (
	"context"
	"log"

	"github.com/Oscar8918/agente-maf/internal/erp"
	"github.com/Oscar8918/agente-maf/internal/store"
	"github.com/Oscar8918/agente-maf/internal/telemetry"
)

// auditSink bridges the ERP client's call events into the durable audit
// table and the prometheus counters.
type auditSink struct {
	store  *store.Store
	logger *log.Logger
}

func (s *auditSink) RecordCall(ctx context.Context, ev erp.AuditEvent) error {
	outcome := "success"
	if !ev.Success {
		outcome = "error"
	}
	telemetry.ERPRequests.WithLabelValues(ev.Endpoint, ev.Method, outcome).Inc()

	if s.store == nil {
		return nil
	}
	return s.store.AppendToolEvent(ctx, store.ToolEventRecord{
		ThreadID:       ev.ThreadID,
		UserID:         ev.UserID,
		ToolName:       ev.Tool,
		Endpoint:       ev.Endpoint,
		Operation:      ev.Operation,
		RequestPayload: ev.RequestPayload,
		ResponseStatus: ev.ResponseStatus,
		Success:        ev.Success,
		DurationMs:     ev.DurationMs,
		ErrorText:      ev.ErrorText,
	})
}
