package core

// limiter.go bounds how many datasets are analysed at once. Analysis holds
// the whole grid in memory, so admitting unbounded uploads would let a burst
// of large files exhaust the process. Callers that cannot get a slot within
// the configured wait receive ErrTooManyAnalyses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyAnalyses is returned when no analysis slot frees up in time.
var ErrTooManyAnalyses = errors.New("too many uploads in progress")

const (
	// DefaultMaxConcurrentAnalyses is used when the configured limit is not positive.
	DefaultMaxConcurrentAnalyses = 5

	// DefaultMaxAnalysisWait is used when the configured wait is not positive.
	DefaultMaxAnalysisWait = 30 * time.Second
)

// AnalysisLimiter is a counting semaphore over dataset analyses.
type AnalysisLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// LimiterStatus is a snapshot for health endpoints.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewAnalysisLimiter admits at most maxConcurrent analyses, each waiting at
// most maxWait for a slot.
func NewAnalysisLimiter(maxConcurrent int, maxWait time.Duration) *AnalysisLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentAnalyses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxAnalysisWait
	}
	return &AnalysisLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. Every successful Acquire must be paired with Release.
func (l *AnalysisLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyAnalyses
	}
}

// Release frees a slot taken by Acquire.
func (l *AnalysisLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Status reports current usage.
func (l *AnalysisLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no analysis is running or ctx is done.
// Used during shutdown.
func (l *AnalysisLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if l.active.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
