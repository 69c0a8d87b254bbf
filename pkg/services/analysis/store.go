package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/de-tools/ratio-atlas/pkg/store/client"
	"github.com/rs/zerolog"
)

const (
	InvalidTickerMessage  = "Please enter a valid ticker symbol"
	GenericFailureMessage = "Failed to fetch analysis"

	DefaultRequestTimeout = 30 * time.Second
)

// Analyzer performs the network call for one ticker.
type Analyzer interface {
	AnalyzeStock(ctx context.Context, ticker domain.Ticker) (*domain.AnalysisResult, error)
}

// View is the read-only surface handed to consumers of the session.
type View interface {
	CurrentTicker() domain.Ticker
	Result() *domain.AnalysisResult
	IsLoading() bool
	ErrorMessage() string
	Snapshot() domain.SessionState
	Subscribe() (<-chan domain.SessionState, func())
}

// Store owns the single analysis session. Only the most recently started
// fetch may write its outcome; ClearResults invalidates any fetch in flight.
type Store struct {
	analyzer Analyzer
	timeout  time.Duration

	mu         sync.RWMutex
	state      domain.SessionState
	generation uint64
	cancel     context.CancelFunc

	subMu       sync.Mutex
	subscribers map[int]chan domain.SessionState
	nextSubID   int
}

type Option func(*Store)

// WithRequestTimeout sets the deadline of a single fetch. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func NewStore(analyzer Analyzer, opts ...Option) *Store {
	s := &Store{
		analyzer:    analyzer,
		timeout:     DefaultRequestTimeout,
		subscribers: make(map[int]chan domain.SessionState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAnalysis runs one analysis for raw and blocks until it settles. It
// never fails: every outcome ends up in the session state.
func (s *Store) FetchAnalysis(ctx context.Context, raw string) {
	logger := zerolog.Ctx(ctx)

	ticker, err := domain.NormalizeTicker(raw)
	if err != nil {
		logger.Debug().Str("input", raw).Msg("rejected empty ticker")
		s.update(func(st *domain.SessionState) bool {
			s.supersedeLocked()
			st.ErrorMessage = InvalidTickerMessage
			st.Result = nil
			st.IsLoading = false
			return true
		})
		return
	}

	reqCtx, gen := s.begin(ctx, ticker)
	result, err := s.analyze(reqCtx, ticker)
	if err != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		err = s.timeoutError(ctx, ticker, err)
	}

	applied := s.settle(gen, func(st *domain.SessionState) {
		if err != nil {
			st.ErrorMessage = failureMessage(err)
			st.Result = nil
			return
		}
		st.Result = result.Clone()
		st.ErrorMessage = ""
	})
	if !applied {
		logger.Debug().
			Str("ticker", ticker.String()).
			Uint64("generation", gen).
			Msg("discarding outcome of superseded analysis")
		return
	}

	if err != nil {
		logger.Warn().Err(err).Str("ticker", ticker.String()).Msg("analysis failed")
	}
}

type outcome struct {
	result *domain.AnalysisResult
	err    error
}

// analyze waits for the analyzer or for ctx, whichever comes first, so that an
// analyzer ignoring its context cannot keep the session loading.
func (s *Store) analyze(ctx context.Context, ticker domain.Ticker) (*domain.AnalysisResult, error) {
	done := make(chan outcome, 1)
	go func() {
		result, err := s.analyzer.AnalyzeStock(ctx, ticker)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// timeoutError names the ticker and, when the fetch hit the store's own
// deadline rather than the caller's, how long it was given.
func (s *Store) timeoutError(parent context.Context, ticker domain.Ticker, err error) error {
	msg := fmt.Sprintf("Analysis of %s timed out", ticker)
	if parent.Err() == nil && s.timeout > 0 {
		msg = fmt.Sprintf("Analysis of %s timed out after %s", ticker, s.timeout)
	}
	return &client.RequestError{Kind: client.KindTimeout, Message: msg, Err: err}
}

// ClearResults resets the session. A fetch still in flight will not write
// its outcome.
func (s *Store) ClearResults() {
	s.mu.Lock()
	s.supersedeLocked()
	s.state = domain.SessionState{}
	s.publishLocked()
	s.mu.Unlock()
}

func (s *Store) CurrentTicker() domain.Ticker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentTicker
}

// Result returns a copy of the last successful analysis, or nil.
func (s *Store) Result() *domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Result.Clone()
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsLoading
}

func (s *Store) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ErrorMessage
}

func (s *Store) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// begin moves the session to Loading and returns the context and generation
// of the new request. The previous request, if any, is cancelled.
func (s *Store) begin(ctx context.Context, ticker domain.Ticker) (context.Context, uint64) {
	var reqCtx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}

	s.mu.Lock()
	s.supersedeLocked()
	gen := s.generation
	s.cancel = cancel
	s.state.ErrorMessage = ""
	s.state.CurrentTicker = ticker
	s.state.IsLoading = true
	s.publishLocked()
	s.mu.Unlock()

	return reqCtx, gen
}

// update applies fn under the write lock and publishes the new state when fn
// reports a change.
func (s *Store) update(fn func(st *domain.SessionState) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.state) {
		return false
	}
	s.publishLocked()
	return true
}

// settle writes the outcome of request gen and clears loading in one step.
// Outcomes of superseded requests are dropped.
func (s *Store) settle(gen uint64, fn func(st *domain.SessionState)) bool {
	return s.update(func(st *domain.SessionState) bool {
		if s.generation != gen {
			return false
		}
		fn(st)
		st.IsLoading = false
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		return true
	})
}

// supersedeLocked invalidates and cancels the request in flight, if any.
func (s *Store) supersedeLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Store) snapshotLocked() domain.SessionState {
	st := s.state
	st.Result = s.state.Result.Clone()
	return st
}

func failureMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericFailureMessage
}
