package settings

import (
	"context"
	"testing"
)

func TestLateThresholdFallsBackWithoutRedis(t *testing.T) {
	svc := NewService(nil, 0)
	if got := svc.LateThresholdMinutes(context.Background()); got != 15 {
		t.Fatalf("expected default 15, got %d", got)
	}

	svc = NewService(nil, 20)
	if got := svc.LateThresholdMinutes(context.Background()); got != 20 {
		t.Fatalf("expected configured fallback 20, got %d", got)
	}
}

func TestSetLateThresholdValidates(t *testing.T) {
	svc := NewService(nil, 15)
	if err := svc.SetLateThreshold(context.Background(), 0); err == nil {
		t.Fatalf("expected rejection of non-positive minutes")
	}
	if err := svc.SetLateThreshold(context.Background(), -5); err == nil {
		t.Fatalf("expected rejection of negative minutes")
	}
}
