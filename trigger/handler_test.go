package trigger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"todo-stream/domain"
	"todo-stream/notify"
)

type fakeLookup struct {
	user *domain.User
	err  error
}

func (f *fakeLookup) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return f.user, f.err
}

type fakeMailer struct {
	sent []notify.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg notify.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func createdEvent(data string) domain.Event {
	return domain.Event{
		ID:         "ev1",
		EntityID:   "task1",
		EntityType: domain.EntityTypeTask,
		Type:       domain.TaskCreated,
		Data:       []byte(data),
		UserID:     "alice",
	}
}

func TestHandleSkipsEmptyPayload(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(&fakeLookup{}, mailer, "key", "no-reply@example.com", "")

	out := h.Handle(context.Background(), createdEvent(""))
	if out.Status != StatusSkippedNoPayload {
		t.Fatalf("expected skipped-no-payload, got %s", out.Status)
	}
	out = h.Handle(context.Background(), createdEvent("{broken"))
	if out.Status != StatusSkippedNoPayload {
		t.Fatalf("expected skipped-no-payload for bad json, got %s", out.Status)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("mailer called for skipped events")
	}
}

func TestHandleSkipsOwnerWithoutEmail(t *testing.T) {
	ev := createdEvent(`{"title":"Buy milk"}`)
	for _, lookup := range []*fakeLookup{
		{user: nil},
		{user: &domain.User{ID: "alice"}},
	} {
		mailer := &fakeMailer{}
		h := NewHandler(lookup, mailer, "key", "no-reply@example.com", "")
		out := h.Handle(context.Background(), ev)
		if out.Status != StatusSkippedNoEmail {
			t.Fatalf("expected skipped-no-email, got %s", out.Status)
		}
		if len(mailer.sent) != 0 {
			t.Fatalf("mailer called without a recipient")
		}
	}
}

func TestHandleSkipsWithoutAPIKey(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(&fakeLookup{user: &domain.User{ID: "alice", Email: "alice@example.com"}}, mailer, "", "no-reply@example.com", "")

	out := h.Handle(context.Background(), createdEvent(`{"title":"Buy milk"}`))
	if out.Status != StatusSkippedNoConfig {
		t.Fatalf("expected skipped-no-config, got %s", out.Status)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("mailer called without configuration")
	}
}

func TestHandleReportsLookupFailure(t *testing.T) {
	boom := errors.New("directory down")
	h := NewHandler(&fakeLookup{err: boom}, &fakeMailer{}, "key", "no-reply@example.com", "")

	out := h.Handle(context.Background(), createdEvent(`{"title":"Buy milk"}`))
	if out.Status != StatusDispatchFailed || !errors.Is(out.Err, boom) {
		t.Fatalf("expected dispatch-failed with cause, got %+v", out)
	}
}

func TestHandleReportsSendFailure(t *testing.T) {
	boom := errors.New("smtp relay refused")
	mailer := &fakeMailer{err: boom}
	h := NewHandler(&fakeLookup{user: &domain.User{ID: "alice", Email: "alice@example.com"}}, mailer, "key", "no-reply@example.com", "")

	out := h.Handle(context.Background(), createdEvent(`{"title":"Buy milk"}`))
	if out.Status != StatusDispatchFailed || !errors.Is(out.Err, boom) {
		t.Fatalf("expected dispatch-failed with cause, got %+v", out)
	}
}

func TestHandleSendsNotification(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(
		&fakeLookup{user: &domain.User{ID: "alice", Email: "alice@example.com"}},
		mailer, "key", "no-reply@example.com", "https://todo.example.com",
	)

	out := h.Handle(context.Background(), createdEvent(`{"title":"Buy milk","description":"2 litres"}`))
	if out.Status != StatusCompleted || out.Err != nil {
		t.Fatalf("expected completed, got %+v", out)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "alice@example.com" || msg.From != "no-reply@example.com" {
		t.Fatalf("unexpected addressing %+v", msg)
	}
	if msg.Subject != "New task created: Buy milk" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "2 litres") || !strings.Contains(msg.Text, "https://todo.example.com") {
		t.Fatalf("unexpected body %q", msg.Text)
	}
}

func TestHandleRedeliveryRepeatsSend(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(&fakeLookup{user: &domain.User{ID: "alice", Email: "alice@example.com"}}, mailer, "key", "no-reply@example.com", "")

	ev := createdEvent(`{"title":"Buy milk"}`)
	for i := 0; i < 2; i++ {
		if out := h.Handle(context.Background(), ev); out.Status != StatusCompleted {
			t.Fatalf("delivery %d: %+v", i, out)
		}
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected duplicate send on redelivery, got %d", len(mailer.sent))
	}
}
