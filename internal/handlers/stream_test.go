package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderanalytics/internal/models"
	"orderanalytics/internal/push"
)

func TestStreamSendsInitialAndBroadcastFrames(t *testing.T) {
	hub := push.NewHub(discardLogger(), nil)
	provider := NewRealtimeProvider(seededEngine(t), &fakeStore{}, discardLogger())
	handler := NewStreamHandler(hub, provider, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription before broadcasting.
	deadline := time.Now().Add(time.Second)
	for hub.Size() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(&models.RealtimeStats{CurrentOrdersPerMinute: 77})

	// Give the handler a moment to flush, then terminate the request.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop on context cancellation")
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", got)
	}

	body := rec.Body.String()
	frames := strings.Count(body, "data: ")
	if frames < 2 {
		t.Fatalf("expected initial frame plus broadcast, got %d frames: %q", frames, body)
	}
	if !strings.Contains(body, `"current_orders_per_minute":77`) {
		t.Errorf("broadcast payload missing from stream: %q", body)
	}

	if hub.Size() != 0 {
		t.Errorf("handler should unsubscribe on exit, %d remain", hub.Size())
	}
}

// closedChannelBroadcaster simulates the hub dropping this subscriber.
type closedChannelBroadcaster struct{}

func (closedChannelBroadcaster) Subscribe() (string, <-chan *models.RealtimeStats) {
	ch := make(chan *models.RealtimeStats)
	close(ch)
	return "sub-1", ch
}

func (closedChannelBroadcaster) Unsubscribe(string) {}

func TestStreamStopsWhenHubDropsSubscriber(t *testing.T) {
	provider := NewRealtimeProvider(seededEngine(t), &fakeStore{}, discardLogger())
	handler := NewStreamHandler(closedChannelBroadcaster{}, provider, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not stop after its channel closed")
	}

	// The initial frame still went out before the drop was observed.
	if !strings.Contains(rec.Body.String(), "data: ") {
		t.Error("expected the initial frame before termination")
	}
}
