package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/domain/uild"
	"github.com/tokyoflo/platform/internal/port/messagequeue"
)

func TestRecordAction(t *testing.T) {
	store := &mockStore{}
	svc := NewActionService(store, nil, nil)
	tenantID := string(uild.MustGenerate(uild.KindTenant))

	id, err := svc.RecordAction(context.Background(), tenantID, "button_click", map[string]string{"button": "signup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uild.IsKind(id, uild.KindAction) {
		t.Errorf("id %q is not an action identifier", id)
	}

	recorded := store.actions[0]
	if recorded.TenantID != tenantID || recorded.Name != "button_click" {
		t.Errorf("recorded = %+v", recorded)
	}
	if recorded.Metadata["button"] != "signup" {
		t.Errorf("metadata = %v", recorded.Metadata)
	}
	if recorded.RecordedAt.IsZero() {
		t.Error("expected recorded timestamp")
	}

	if _, err := svc.RecordAction(context.Background(), "garbage", "x", nil); !errors.Is(err, domain.ErrInvalidTenantID) {
		t.Errorf("err = %v, want ErrInvalidTenantID", err)
	}
}

func TestRecordActionStoreFailure(t *testing.T) {
	store := &mockStore{createActionErr: errors.New("disk full")}
	svc := NewActionService(store, nil, nil)
	tenantID := string(uild.MustGenerate(uild.KindTenant))

	if _, err := svc.RecordAction(context.Background(), tenantID, "x", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestVisitSession(t *testing.T) {
	store := &mockStore{}
	svc := NewActionService(store, nil, nil)
	tenantID := string(uild.MustGenerate(uild.KindTenant))

	visitID, err := svc.StartVisit(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("start visit: %v", err)
	}
	if !uild.IsKind(visitID, uild.KindSession) {
		t.Errorf("visit id %q is not a session identifier", visitID)
	}

	if err := svc.EndVisit(context.Background(), tenantID, visitID); err != nil {
		t.Fatalf("end visit: %v", err)
	}

	if len(store.actions) != 2 {
		t.Fatalf("actions = %d, want page_view and session_end", len(store.actions))
	}
	if store.actions[0].Name != "page_view" || store.actions[1].Name != "session_end" {
		t.Errorf("action names = %q, %q", store.actions[0].Name, store.actions[1].Name)
	}
	if store.actions[1].Metadata["session"] != visitID {
		t.Errorf("session_end metadata = %v", store.actions[1].Metadata)
	}
}

func TestRecentActions(t *testing.T) {
	store := &mockStore{}
	svc := NewActionService(store, nil, nil)
	tenantID := string(uild.MustGenerate(uild.KindTenant))
	otherID := string(uild.MustGenerate(uild.KindTenant))

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordAction(context.Background(), tenantID, "ping", nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if _, err := svc.RecordAction(context.Background(), otherID, "pong", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	actions, err := svc.Recent(context.Background(), tenantID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("len = %d, want limit applied", len(actions))
	}
	for _, a := range actions {
		if a.TenantID != tenantID {
			t.Errorf("cross-tenant action leaked: %+v", a)
		}
	}
}

func TestConsumeRecorded(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	svc := NewActionService(store, queue, nil)
	tenantID := string(uild.MustGenerate(uild.KindTenant))

	stop, err := svc.ConsumeRecorded(context.Background())
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if _, err := svc.RecordAction(context.Background(), tenantID, "button_click", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(queue.published) != 1 || queue.published[0].subject != messagequeue.SubjectActionRecorded {
		t.Fatalf("published = %+v", queue.published)
	}
	if err := queue.deliver(context.Background()); err != nil {
		t.Errorf("deliver: %v", err)
	}

	stop()
	if !queue.cancelled {
		t.Error("expected subscription cancelled")
	}
}

func TestConsumeRecordedRejectsGarbage(t *testing.T) {
	queue := &mockQueue{}
	svc := NewActionService(&mockStore{}, queue, nil)

	if _, err := svc.ConsumeRecorded(context.Background()); err != nil {
		t.Fatalf("consume: %v", err)
	}
	handler := queue.handlers[messagequeue.SubjectActionRecorded]
	if handler == nil {
		t.Fatal("no handler subscribed")
	}
	if err := handler(context.Background(), messagequeue.SubjectActionRecorded, []byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestConsumeRecordedNilQueue(t *testing.T) {
	svc := NewActionService(&mockStore{}, nil, nil)
	stop, err := svc.ConsumeRecorded(context.Background())
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	stop()
}
