package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// blockingTransport holds every request until its context ends
type blockingTransport struct{}

func (blockingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func TestDiscordNotifier_RequestFollowsContext(t *testing.T) {
	t.Parallel()

	d, err := NewDiscordNotifier("123", "token")
	if err != nil {
		t.Fatalf("NewDiscordNotifier returned error: %v", err)
	}
	d.session.Client = &http.Client{Transport: blockingTransport{}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Notify(ctx, Notice{TaskID: 1, Title: "Pay rent"}) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected the deadline to abort the webhook call, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("webhook call ignored the context")
	}
}

func TestDiscordNotifier_CancelledBeforeSend(t *testing.T) {
	t.Parallel()

	d, err := NewDiscordNotifier("123", "token")
	if err != nil {
		t.Fatalf("NewDiscordNotifier returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Notify(ctx, Notice{Title: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
