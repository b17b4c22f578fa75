package loader

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPendingResultBeforeResolve(t *testing.T) {
	p := newPending[int]()
	if p.Ready() {
		t.Fatal("new pending should not be ready")
	}
	if _, err := p.Result(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

func TestPendingFirstResolveWins(t *testing.T) {
	p := newPending[string]()
	if !p.resolve("first", nil) {
		t.Fatal("first resolve should win")
	}
	if p.resolve("second", errors.New("late")) {
		t.Error("second resolve should be ignored")
	}

	v, err := p.Result()
	if err != nil || v != "first" {
		t.Errorf("Expected (first, nil), got (%q, %v)", v, err)
	}
	select {
	case <-p.Done():
	default:
		t.Error("Done should be closed after resolve")
	}
}

func TestPendingWait(t *testing.T) {
	p := newPending[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.resolve(42, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := p.Wait(ctx)
	if err != nil || v != 42 {
		t.Errorf("Expected (42, nil), got (%d, %v)", v, err)
	}
}

func TestPendingWaitCancelled(t *testing.T) {
	p := newPending[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestResolved(t *testing.T) {
	boom := errors.New("boom")
	p := Resolved(7, boom)
	if !p.Ready() {
		t.Fatal("Resolved should be ready")
	}
	v, err := p.Result()
	if v != 7 || !errors.Is(err, boom) {
		t.Errorf("Expected (7, boom), got (%d, %v)", v, err)
	}
}
