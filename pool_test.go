package tex2pdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit=1 for sequential",
			workers: 1,
			want:    1,
		},
		{
			name:    "explicit can exceed max",
			workers: 100,
			want:    100,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs*cpuMultiplier, MinPoolSize), MaxPoolSize),
		},
		{
			name:    "negative uses auto calculation",
			workers: -3,
			want:    min(max(gomaxprocs*cpuMultiplier, MinPoolSize), MaxPoolSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestNewSlots_MinimumSize(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0} {
		if got := NewSlots(n).Size(); got != MinPoolSize {
			t.Errorf("NewSlots(%d).Size() = %d, want %d", n, got, MinPoolSize)
		}
	}
}

func TestSlots_AcquireRelease(t *testing.T) {
	t.Parallel()

	s := NewSlots(2)
	ctx := context.Background()

	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := s.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if s.InUse() != 2 {
		t.Errorf("InUse() = %d, want 2", s.InUse())
	}

	s.Release()
	if s.InUse() != 1 {
		t.Errorf("InUse() after Release = %d, want 1", s.InUse())
	}
	s.Release()
}

func TestSlots_AcquireHonorsContext(t *testing.T) {
	t.Parallel()

	s := NewSlots(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer s.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on full slots = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestSlots_FreeSlotWinsOverDoneContext(t *testing.T) {
	t.Parallel()

	s := NewSlots(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Acquire(ctx); err != nil {
		t.Errorf("Acquire() with free slot = %v, want nil", err)
	}
	s.Release()
}

func TestSlots_HighContention(t *testing.T) {
	t.Parallel()

	const (
		size       = 3
		goroutines = 50
	)
	s := NewSlots(size)

	var (
		wg      sync.WaitGroup
		current atomic.Int32
		peak    atomic.Int32
	)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
			s.Release()
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > size {
		t.Errorf("peak concurrency = %d, want <= %d", p, size)
	}
	if s.InUse() != 0 {
		t.Errorf("InUse() after all released = %d, want 0", s.InUse())
	}
}
