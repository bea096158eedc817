package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"todo-stream/domain"
	"todo-stream/notify"
)

// Status classifies how a trigger invocation terminated. Every branch is a
// defined terminal state; the handler never errors back to the platform.
type Status string

const (
	StatusCompleted        Status = "completed"
	StatusSkippedNoPayload Status = "skipped-no-payload"
	StatusSkippedNoEmail   Status = "skipped-no-email"
	StatusSkippedNoConfig  Status = "skipped-no-config"
	StatusDispatchFailed   Status = "dispatch-failed"
)

// Outcome reports the terminal branch of one invocation. Err is set only
// for the dispatch-failed branch.
type Outcome struct {
	Status Status
	Err    error
}

// UserLookup resolves a record owner to their directory entry.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Handler reacts to task-created events with a best-effort notification.
// It runs after the write is already committed, so no branch may propagate
// failure back toward the writer. Redelivered events are safe to repeat;
// the cost is a duplicate email.
type Handler struct {
	users  UserLookup
	mailer notify.Mailer
	apiKey string
	from   string
	appURL string
}

func NewHandler(users UserLookup, mailer notify.Mailer, apiKey, from, appURL string) Handler {
	return Handler{users: users, mailer: mailer, apiKey: apiKey, from: from, appURL: appURL}
}

// Handle processes one creation event to a terminal outcome.
func (h Handler) Handle(ctx context.Context, ev domain.Event) Outcome {
	if len(ev.Data) == 0 {
		log.Warn("no data found in the created event")
		return Outcome{Status: StatusSkippedNoPayload}
	}
	var payload domain.TaskCreatedData
	if err := sonic.Unmarshal(ev.Data, &payload); err != nil {
		log.Warnf("unreadable creation payload for %s: %v", ev.EntityID, err)
		return Outcome{Status: StatusSkippedNoPayload}
	}
	log.WithFields(log.Fields{"task": ev.EntityID, "title": payload.Title, "user": ev.UserID}).Info("new task created")

	user, err := h.users.GetUser(ctx, ev.UserID)
	if err != nil {
		log.Errorf("resolve owner %s: %v", ev.UserID, err)
		return Outcome{Status: StatusDispatchFailed, Err: err}
	}
	if user == nil || user.Email == "" {
		log.Infof("owner %s has no contact address, skipping notification", ev.UserID)
		return Outcome{Status: StatusSkippedNoEmail}
	}

	if h.apiKey == "" {
		log.Warn("mail API key not configured, skipping notification")
		return Outcome{Status: StatusSkippedNoConfig}
	}

	msg := h.compose(user.Email, payload)
	if err := h.mailer.Send(ctx, msg); err != nil {
		log.Errorf("dispatch notification for task %s: %v", ev.EntityID, err)
		return Outcome{Status: StatusDispatchFailed, Err: err}
	}
	log.Infof("task %q notification sent to %s", payload.Title, user.Email)
	return Outcome{Status: StatusCompleted}
}

func (h Handler) compose(to string, payload domain.TaskCreatedData) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A new task %q was added to your list.\n", payload.Title)
	if payload.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", payload.Description)
	}
	if h.appURL != "" {
		fmt.Fprintf(&b, "\nOpen your list: %s\n", h.appURL)
	}
	return notify.Message{
		From:    h.from,
		To:      to,
		Subject: "New task created: " + payload.Title,
		Text:    b.String(),
	}
}
