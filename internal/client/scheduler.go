package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hairstudio/internal/domain"
	"hairstudio/internal/imagegen"
)

// DefaultDebounce is the quiet period before a selection is generated.
const DefaultDebounce = 500 * time.Millisecond

// State is the scheduler's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateInFlight:
		return "in_flight"
	}
	return "unknown"
}

// Stopper cancels a pending timer.
type Stopper interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Debounce  time.Duration
	Timeout   time.Duration
	AfterFunc AfterFunc
	Logger    *zerolog.Logger
}

// Scheduler watches a session and requests a preview for the current
// selection once it has been stable for the debounce period. At most one
// generation runs at a time; results are cached on the session and trial
// credits are charged only after success.
type Scheduler struct {
	session *Session
	gen     Generator
	catalog Catalog
	gate    Gatekeeper
	opts    SchedulerOptions
	log     zerolog.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	mu      sync.Mutex
	state   State
	timer   Stopper
	seq     uint64
	pending domain.GenerationKey
	// suppressed is a key that failed or was denied; it is not retried
	// automatically until the selection or the user changes.
	suppressed *domain.GenerationKey
	closed     bool
}

func NewScheduler(session *Session, gen Generator, catalog Catalog, opts SchedulerOptions) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "scheduler").Logger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		session: session,
		gen:     gen,
		catalog: catalog,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.unsubscribe = session.Bus().Subscribe(s.onEvent)
	return s
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the pending timer and aborts an in-flight generation.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.state = StateIdle
	s.mu.Unlock()
	s.unsubscribe()
	s.cancel()
}

// Retry re-arms the current selection even if it just failed.
func (s *Scheduler) Retry() {
	s.mu.Lock()
	s.suppressed = nil
	s.mu.Unlock()
	s.session.clearError()
	s.evaluate()
}

func (s *Scheduler) onEvent(ev Event) {
	if ev.Kind == EventUserChanged {
		s.mu.Lock()
		s.suppressed = nil
		s.mu.Unlock()
	}
	s.evaluate()
}

// evaluate reconciles the timer with the session. The snapshot is taken
// under s.mu so concurrent evaluations apply in lock order and the last one
// always sees the latest selection. Lock order is s.mu then the session's.
func (s *Scheduler) evaluate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateInFlight {
		return
	}
	snap := s.session.Snapshot()
	key, ok := snap.Key()
	if s.suppressed != nil && (!ok || *s.suppressed != key) {
		s.suppressed = nil
	}
	if !ok || snap.Blocked() || s.session.Cache().Has(key) ||
		(s.suppressed != nil && *s.suppressed == key) {
		s.stopTimerLocked()
		s.state = StateIdle
		return
	}

	s.stopTimerLocked()
	s.seq++
	seq := s.seq
	s.pending = key
	s.state = StateScheduled
	s.timer = s.opts.AfterFunc(s.opts.Debounce, func() { s.fire(seq) })
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.seq || s.state != StateScheduled {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	snap := s.session.Snapshot()
	key, ok := snap.Key()
	if !ok || key != s.pending || snap.Blocked() || s.session.Cache().Has(key) {
		// The selection moved without a fresh schedule reaching us; re-arm
		// for whatever is current instead of going quiet.
		s.state = StateIdle
		s.mu.Unlock()
		s.evaluate()
		return
	}

	switch decision := s.gate.Authorize(snap.User); decision {
	case RequireSignIn, RequireUpgrade:
		s.state = StateIdle
		s.suppressed = &key
		s.mu.Unlock()
		s.log.Debug().Str("key", key.String()).Stringer("decision", decision).Msg("generation gated")
		if decision == RequireSignIn {
			s.session.OpenModal(ModalSignIn)
		} else {
			s.session.OpenModal(ModalPricing)
		}
		return
	}

	req, err := s.buildRequest(snap, key)
	if err != nil {
		s.state = StateIdle
		s.suppressed = &key
		s.mu.Unlock()
		s.session.fail(snap.Epoch, err)
		return
	}
	s.state = StateInFlight
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.Timeout)
	s.mu.Unlock()

	start := time.Now()
	url, err := s.gen.Generate(ctx, req)
	cancel()

	s.mu.Lock()
	s.state = StateIdle
	if err != nil {
		s.suppressed = &key
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Dur("elapsed", time.Since(start)).Msg("generation failed")
		s.session.fail(snap.Epoch, err)
		return
	}
	kept := s.session.complete(snap.Epoch, key, url, s.gate.Charge)
	s.log.Debug().Str("key", key.String()).Bool("kept", kept).Dur("elapsed", time.Since(start)).Msg("generation finished")
}

func (s *Scheduler) buildRequest(snap Snapshot, key domain.GenerationKey) (imagegen.Request, error) {
	style, ok := s.catalog.Style(key.StyleID)
	if !ok {
		return imagegen.Request{}, fmt.Errorf("%w: unknown style %q", domain.ErrValidation, key.StyleID)
	}
	color, ok := s.catalog.Color(key.ColorID)
	if !ok {
		return imagegen.Request{}, fmt.Errorf("%w: unknown color %q", domain.ErrValidation, key.ColorID)
	}
	req := imagegen.Request{
		StyleDescription: style.Prompt(),
		ColorDescription: color.PromptValue,
		Gender:           string(snap.Gender),
		Angle:            string(key.Angle),
	}
	if snap.Source != "" {
		src := snap.Source
		req.SourceImageDataURL = &src
	}
	return req, nil
}
