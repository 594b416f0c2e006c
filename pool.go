package tex2pdf

import (
	"context"
	"runtime"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one compile can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent engine processes; each pdflatex run can
	// use a full core and a few hundred MB.
	MaxPoolSize = 32

	// cpuMultiplier allows some oversubscription: engine runs spend part of
	// their time on disk I/O.
	cpuMultiplier = 2
)

// Slots bounds how many compiles run at once.
// The Compiler itself imposes no limit; servers and CLIs wrap it with Slots
// sized by ResolvePoolSize.
type Slots struct {
	sem chan struct{}
}

// NewSlots creates a limiter admitting n concurrent holders.
func NewSlots(n int) *Slots {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &Slots{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Slots) Acquire(ctx context.Context) error {
	// Fast path: a free slot wins even if ctx is already done
	select {
	case s.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (s *Slots) Release() {
	<-s.sem
}

// Size returns the slot capacity.
func (s *Slots) Size() int {
	return cap(s.sem)
}

// InUse returns the number of slots currently held.
func (s *Slots) InUse() int {
	return len(s.sem)
}

// ResolvePoolSize determines the number of concurrent compiles.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0) * cpuMultiplier

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
