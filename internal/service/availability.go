package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CandidateValidator is the slice of the resolver the availability checker
// needs; satisfied by *ResolverService.
type CandidateValidator interface {
	ValidateSubdomainCandidate(ctx context.Context, candidate string) (CandidateVerdict, error)
}

// AvailabilityResult pairs a verdict with the input it was computed for.
// Err is set when the uniqueness check itself failed (remote error).
type AvailabilityResult struct {
	Input   string
	Verdict CandidateVerdict
	Err     error
}

// AvailabilityChecker debounces interactive subdomain-availability checks.
// Each Submit supersedes any pending check: the debounce timer restarts and
// a stale in-flight result is discarded, so the delivered result always
// corresponds to the newest input. Identical concurrent lookups are
// de-duplicated through singleflight.
type AvailabilityChecker struct {
	validator CandidateValidator
	debounce  time.Duration
	timeout   time.Duration
	onResult  func(AvailabilityResult)

	group singleflight.Group

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewAvailabilityChecker creates a checker that delivers results through
// onResult. Delivery happens on the checker's goroutine; callbacks must not
// block.
func NewAvailabilityChecker(v CandidateValidator, debounce, timeout time.Duration, onResult func(AvailabilityResult)) *AvailabilityChecker {
	return &AvailabilityChecker{
		validator: v,
		debounce:  debounce,
		timeout:   timeout,
		onResult:  onResult,
	}
}

// Submit registers a new input. Any pending or in-flight check for an older
// input is superseded; its result will not be delivered.
func (c *AvailabilityChecker) Submit(input string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.gen++
	gen := c.gen

	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.timer = time.AfterFunc(c.debounce, func() {
		c.run(gen, input)
	})
}

// Close stops any pending check. Submitted inputs after Close are ignored.
func (c *AvailabilityChecker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// run executes the remote check for input if gen is still the newest.
func (c *AvailabilityChecker) run(gen uint64, input string) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.mu.Unlock()

	v, err, _ := c.group.Do(input, func() (any, error) {
		return c.validator.ValidateSubdomainCandidate(ctx, input)
	})
	cancel()

	c.mu.Lock()
	if gen == c.gen {
		// Still the newest check; release its finished cancel func so the
		// critical section never holds a dead reference.
		c.cancel = nil
	}
	stale := c.closed || gen != c.gen
	c.mu.Unlock()
	if stale {
		// A newer input arrived while this check was in flight; its result
		// must never overwrite the newer input's state.
		slog.Debug("discarding stale availability result", "input", input)
		return
	}

	res := AvailabilityResult{Input: input, Err: err}
	if err == nil {
		res.Verdict = v.(CandidateVerdict)
	}
	c.onResult(res)
}
