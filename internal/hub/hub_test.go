package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
)

func statusUpdate(id string, status entity.JobStatus) *entity.Job {
	return &entity.Job{RequestID: id, Status: status}
}

func receive(t *testing.T, sub *Subscriber) *entity.Job {
	t.Helper()
	select {
	case job := <-sub.Updates():
		return job
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return nil
	}
}

func TestSubscriberReceivesBroadcast(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("req-1")

	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusProcessing))

	got := receive(t, sub)
	assert.Equal(t, entity.JobStatusProcessing, got.Status)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	first := h.Subscribe("req-1")
	second := h.Subscribe("req-1")

	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusProcessing))
	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusCompleted))

	assert.Equal(t, entity.JobStatusProcessing, receive(t, first).Status)
	assert.Equal(t, entity.JobStatusCompleted, receive(t, first).Status)
	assert.Equal(t, entity.JobStatusProcessing, receive(t, second).Status)
	assert.Equal(t, entity.JobStatusCompleted, receive(t, second).Status)
}

func TestBroadcastIsolatedPerRequest(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("req-1")
	other := h.Subscribe("req-2")

	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusCompleted))

	receive(t, sub)
	select {
	case <-other.Updates():
		t.Fatal("subscriber of another request received the update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribedReceivesNothingFurther(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("req-1")
	survivor := h.Subscribe("req-1")

	h.Unsubscribe("req-1", sub)
	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusCompleted))

	select {
	case <-sub.Updates():
		t.Fatal("detached subscriber received an update")
	case <-sub.Done():
	}

	// The remaining subscriber is unaffected.
	assert.Equal(t, entity.JobStatusCompleted, receive(t, survivor).Status)
	assert.Equal(t, 1, h.SubscriberCount("req-1"))
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := NewHub(zap.NewNop())
	slow := h.Subscribe("req-1")

	// Fill the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+1; i++ {
		h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusProcessing))
	}

	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not detached")
	}
	assert.Equal(t, 0, h.SubscriberCount("req-1"))

	// A fresh subscriber on the same id still receives updates.
	healthy := h.Subscribe("req-1")
	h.Broadcast("req-1", statusUpdate("req-1", entity.JobStatusCompleted))
	assert.Equal(t, entity.JobStatusCompleted, receive(t, healthy).Status)
}

func TestBroadcastWithoutSubscribersDoesNotPanic(t *testing.T) {
	h := NewHub(zap.NewNop())
	require.NotPanics(t, func() {
		h.Broadcast("req-unknown", statusUpdate("req-unknown", entity.JobStatusCompleted))
	})
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("req-1")

	h.Unsubscribe("req-1", sub)
	require.NotPanics(t, func() {
		h.Unsubscribe("req-1", sub)
	})
	assert.Equal(t, 0, h.SubscriberCount("req-1"))
}
