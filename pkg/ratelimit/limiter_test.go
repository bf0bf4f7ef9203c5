package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func TestNewLimiter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rps     float64
		burst   int
		wantErr bool
	}{
		{"valid", 10, 5, false},
		{"zero rps", 0, 5, true},
		{"negative rps", -1, 5, true},
		{"zero burst", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLimiter(tt.rps, tt.burst, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLimiter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if l.Limit() != tt.rps {
					t.Errorf("Limit() = %v, want %v", l.Limit(), tt.rps)
				}
				if l.Burst() != tt.burst {
					t.Errorf("Burst() = %v, want %v", l.Burst(), tt.burst)
				}
			}
		})
	}
}

func TestLimiter_WaitWithinBurst(t *testing.T) {
	l, err := NewLimiter(1, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst of 3 took %v, expected no blocking", elapsed)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l, err := NewLimiter(0.001, 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	// Drain the single token.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("Wait() should fail once the context cannot be satisfied")
	}
}

func TestUnlimited(t *testing.T) {
	l := Unlimited()
	if l.Limit() != float64(rate.Inf) {
		t.Errorf("Limit() = %v, want Inf", l.Limit())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context may still be reported; it must never block.
	if err := l.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() unexpected error = %v", err)
	}
}
