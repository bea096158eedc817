package subscription

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestListenNotifiesBroker(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rc.Close()

	broker := NewBroker()
	ch := broker.Subscribe("user1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Listen(ctx, rc, "chan", broker)
		close(done)
	}()
	// wait for subscription to start
	time.Sleep(50 * time.Millisecond)

	// Garbage payloads are skipped without waking anyone.
	if err := rc.Publish(context.Background(), "chan", "not-json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := rc.Publish(context.Background(), "chan", `{"UserId":"user1"}`).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no wakeup received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Listen did not stop on cancel")
	}
}
