package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

func TestCaptureDeniedWithoutGrant(t *testing.T) {
	c := NewLoopbackCapturer(false)
	if _, err := c.Capture(context.Background()); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("ungranted capture: got %v, want ErrPermissionDenied", err)
	}
}

func TestCaptureCanceledContext(t *testing.T) {
	c := NewLoopbackCapturer(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// cancellation during acquisition must fail the attempt rather than
	// leave a recorder process running with nobody holding its handle
	if _, err := c.Capture(ctx); !errors.Is(err, domain.ErrResourceUnavailable) {
		t.Fatalf("canceled capture: got %v, want ErrResourceUnavailable", err)
	}
}
