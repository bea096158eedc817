package subscription

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Listen consumes record-store update notifications from Redis and wakes
// the broker's subscribers. It reconnects with a short delay when the
// pubsub channel closes and returns once ctx is done.
func Listen(ctx context.Context, rc *redis.Client, channel string, broker *Broker) {
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev struct {
					UserID string `json:"UserId"`
				}
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Errorf("unable to parse update: %v", err)
					continue
				}
				if ev.UserID == "" {
					continue
				}
				broker.Notify(ev.UserID)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
