package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/action"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/port/database"
	"github.com/tokyoflo/platform/internal/port/messagequeue"
)

// ActionService records the fire-and-log action side channel used by the
// surrounding UI: page views, wizard steps, session boundaries.
type ActionService struct {
	store   database.Store
	queue   messagequeue.Queue
	metrics *otel.Metrics
}

// NewActionService creates a new ActionService. Queue may be nil; events are
// then persisted but not published.
func NewActionService(store database.Store, queue messagequeue.Queue, metrics *otel.Metrics) *ActionService {
	return &ActionService{store: store, queue: queue, metrics: metrics}
}

// RecordAction mints an action identifier, persists the action, and
// publishes it as an event (best-effort). Returns the minted identifier.
func (s *ActionService) RecordAction(ctx context.Context, tenantID, name string, metadata map[string]string) (string, error) {
	if !uild.IsKind(tenantID, uild.KindTenant) {
		return "", fmt.Errorf("record action %q: %w", name, domain.ErrInvalidTenantID)
	}
	if name == "" {
		return "", fmt.Errorf("record action: name is required")
	}

	a := &action.Action{
		ID:         string(uild.MustGenerate(uild.KindAction)),
		TenantID:   tenantID,
		Name:       name,
		Metadata:   metadata,
		RecordedAt: time.Now().UTC(),
	}

	if err := s.store.CreateAction(ctx, a); err != nil {
		return "", fmt.Errorf("record action %q: %w", name, err)
	}

	s.publish(ctx, a)
	s.metrics.CountAction(ctx, name)

	slog.Debug("action recorded", "action_id", a.ID, "tenant_id", tenantID, "name", name)
	return a.ID, nil
}

// StartVisit mints a visit session identifier for a tenant page load and
// records the page_view action against it.
func (s *ActionService) StartVisit(ctx context.Context, tenantID string) (string, error) {
	sessionID := string(uild.MustGenerate(uild.KindSession))
	_, err := s.RecordAction(ctx, tenantID, "page_view", map[string]string{"session": sessionID})
	if err != nil {
		return "", fmt.Errorf("start visit: %w", err)
	}
	return sessionID, nil
}

// EndVisit records the session_end action for a visit started with StartVisit.
func (s *ActionService) EndVisit(ctx context.Context, tenantID, sessionID string) error {
	_, err := s.RecordAction(ctx, tenantID, "session_end", map[string]string{"session": sessionID})
	if err != nil {
		return fmt.Errorf("end visit: %w", err)
	}
	return nil
}

// Recent returns the newest recorded actions for a tenant.
func (s *ActionService) Recent(ctx context.Context, tenantID string, limit int) ([]action.Action, error) {
	if !uild.IsKind(tenantID, uild.KindTenant) {
		return nil, fmt.Errorf("list actions: %w", domain.ErrInvalidTenantID)
	}
	return s.store.ListActions(ctx, tenantID, limit)
}

// ConsumeRecorded subscribes to recorded-action events and writes each to
// the audit log. Returns the subscription cancel func; with a nil queue the
// cancel is a no-op.
func (s *ActionService) ConsumeRecorded(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return func() {}, nil
	}
	return s.queue.Subscribe(ctx, messagequeue.SubjectActionRecorded, func(_ context.Context, subject string, data []byte) error {
		var a action.Action
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("decode action event on %s: %w", subject, err)
		}
		slog.Info("action event", "action_id", a.ID, "tenant_id", a.TenantID, "name", a.Name)
		return nil
	})
}

func (s *ActionService) publish(ctx context.Context, a *action.Action) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectActionRecorded, data); err != nil {
		slog.Warn("failed to publish action event", "action_id", a.ID, "error", err)
	}
}
