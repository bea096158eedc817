package subscription

import "testing"

func TestBrokerNotifyWakesSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("u1")
	b.Notify("u1")
	select {
	case <-ch:
	default:
		t.Fatalf("expected wakeup")
	}
}

func TestBrokerNotifyIsScopedPerUser(t *testing.T) {
	b := NewBroker()
	alice := b.Subscribe("alice")
	bob := b.Subscribe("bob")
	b.Notify("alice")
	select {
	case <-bob:
		t.Fatalf("bob woken by alice's update")
	default:
	}
	select {
	case <-alice:
	default:
		t.Fatalf("alice not woken")
	}
}

func TestBrokerPendingWakeupNotQueuedTwice(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("u1")
	b.Notify("u1")
	b.Notify("u1")
	<-ch
	select {
	case <-ch:
		t.Fatalf("expected a single pending wakeup")
	default:
	}
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("u1")
	b.Unsubscribe("u1", ch)
	b.Notify("u1")
	select {
	case <-ch:
		t.Fatalf("unsubscribed channel received wakeup")
	default:
	}
}
