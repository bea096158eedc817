package trigger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"todo-stream/domain"
)

// Consume drains the creation-event queue until ctx is cancelled. Messages
// are deleted after handling regardless of outcome: every handler branch
// is terminal, so redelivery would only duplicate the notification.
func Consume(ctx context.Context, queue *azqueue.QueueClient, h Handler) {
	for {
		if ctx.Err() != nil {
			return
		}
		resp, err := queue.DequeueMessage(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("receive: %v", err)
			sleep(ctx, time.Second)
			continue
		}
		if len(resp.Messages) == 0 {
			sleep(ctx, time.Second)
			continue
		}
		msg := resp.Messages[0]
		if msg.MessageText != nil {
			var ev domain.Event
			if err := json.Unmarshal([]byte(*msg.MessageText), &ev); err != nil {
				log.Warnf("unreadable event message: %v", err)
			} else {
				h.Handle(ctx, ev)
			}
		}
		if msg.MessageID != nil && msg.PopReceipt != nil {
			if _, err := queue.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
				log.Errorf("delete message: %v", err)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
