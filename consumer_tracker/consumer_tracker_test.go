package consumer_tracker

import (
	"testing"
	"time"
)

func TestRecordAccumulatesPerConsumer(t *testing.T) {
	tracker := NewConsumerTracker(time.Minute)
	tracker.RecordClaim("worker-1", 3)
	tracker.RecordMarked("worker-1", 2)
	tracker.RecordFailed("worker-1", 1)
	tracker.RecordClaim("worker-2", 5)
	tracker.RecordClaim("", 9)

	snap := tracker.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 consumers, got %d", len(snap))
	}
	w1 := snap["worker-1"]
	if w1.Claimed != 3 || w1.Marked != 2 || w1.Failed != 1 {
		t.Errorf("unexpected worker-1 activity %+v", w1)
	}
	if w1.LastSeen == 0 {
		t.Error("last seen not set")
	}
	if snap["worker-2"].Claimed != 5 {
		t.Errorf("unexpected worker-2 activity %+v", snap["worker-2"])
	}
}

func TestExpiredConsumersAreForgotten(t *testing.T) {
	tracker := NewConsumerTracker(20 * time.Millisecond)
	tracker.RecordClaim("worker-1", 1)
	time.Sleep(40 * time.Millisecond)

	if snap := tracker.Snapshot(); len(snap) != 0 {
		t.Errorf("expected expired consumer to be hidden, got %v", snap)
	}
}
