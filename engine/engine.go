package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/ruvasqm/rate-tray/common"
	"github.com/ruvasqm/rate-tray/config"
)

var log = logger.GetOrCreate("engine")

const cycleTimeout = 30 * time.Second

// pollState tracks the scheduler's own cycle bookkeeping. It is owned
// exclusively by the polling goroutine and never shared.
type pollState struct {
	lastSuccess         time.Time
	consecutiveFailures uint32
}

// scheduler drives fetch -> store -> render on a timed cadence with failure
// backoff and hands fully-formed icon updates to the tray over a bounded
// channel
type scheduler struct {
	cfg      config.PollConfig
	fetcher  Fetcher
	store    Store
	renderer Renderer

	baseInterval time.Duration
	maxBackoff   time.Duration

	state     pollState
	hasLast   bool
	lastValue float64
	lastTrend common.Trend

	updates chan common.IconUpdate
	trigger chan struct{}

	mutCancel sync.Mutex
	cancel    func()
	wg        sync.WaitGroup
}

// NewScheduler creates a new polling scheduler
func NewScheduler(cfg config.PollConfig, f Fetcher, s Store, r Renderer) (*scheduler, error) {
	if check.IfNil(f) {
		return nil, errors.New("nil fetcher")
	}
	if check.IfNil(s) {
		return nil, errors.New("nil store")
	}
	if check.IfNil(r) {
		return nil, errors.New("nil renderer")
	}
	if cfg.IntervalInSeconds == 0 {
		return nil, errors.New("invalid poll interval")
	}
	if cfg.MaxBackoffInSeconds < cfg.IntervalInSeconds {
		return nil, errors.New("max backoff is lower than the poll interval")
	}
	if cfg.MaxConsecutiveFailures == 0 {
		return nil, errors.New("invalid max consecutive failures")
	}
	if cfg.DedupTolerance < 0 {
		return nil, errors.New("negative dedup tolerance")
	}

	return &scheduler{
		cfg:          cfg,
		fetcher:      f,
		store:        s,
		renderer:     r,
		baseInterval: time.Duration(cfg.IntervalInSeconds) * time.Second,
		maxBackoff:   time.Duration(cfg.MaxBackoffInSeconds) * time.Second,
		updates:      make(chan common.IconUpdate, 1),
		trigger:      make(chan struct{}, 1),
	}, nil
}

// Updates returns the channel the tray controller drains for new icons
func (s *scheduler) Updates() <-chan common.IconUpdate {
	return s.updates
}

// TriggerNow requests an immediate poll cycle, coalescing repeated requests
func (s *scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Process runs one poll cycle and returns the delay until the next one
func (s *scheduler) Process(ctx context.Context) time.Duration {
	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	err := s.cycle(cycleCtx)
	if err != nil {
		if ctx.Err() != nil {
			// shutting down, the result of this cycle is discarded
			return s.baseInterval
		}

		return s.handleFailure(err)
	}

	s.state.consecutiveFailures = 0
	s.state.lastSuccess = time.Now()

	return s.baseInterval
}

func (s *scheduler) cycle(ctx context.Context) error {
	reading, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	previous, err := s.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to read latest entry: %w", err)
	}

	trend := s.computeTrend(reading, previous)

	if s.shouldAppend(reading, previous) {
		entry, errAppend := s.store.Append(ctx, reading)
		if errAppend != nil {
			return fmt.Errorf("failed to append reading: %w", errAppend)
		}
		log.Debug("appended reading", "seq", entry.Seq, "value", entry.Value)
	} else {
		log.Debug("skipping append, value within dedup tolerance", "value", reading.Value)
	}

	icon, err := s.renderer.Render(reading.Value, trend, false)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	s.hasLast = true
	s.lastValue = reading.Value
	s.lastTrend = trend

	s.postUpdate(common.IconUpdate{Icon: icon})

	return nil
}

func (s *scheduler) handleFailure(err error) time.Duration {
	s.state.consecutiveFailures++
	backoff := s.nextBackoff()

	log.Warn("poll cycle failed",
		"error", err,
		"consecutiveFailures", s.state.consecutiveFailures,
		"nextRetryIn", backoff,
	)

	if s.state.consecutiveFailures >= s.cfg.MaxConsecutiveFailures {
		s.surfaceStaleness()
	}

	return backoff
}

// nextBackoff doubles the base interval per consecutive failure, capped at
// the configured maximum: base, 2x, 4x, ...
func (s *scheduler) nextBackoff() time.Duration {
	shift := s.state.consecutiveFailures - 1
	if shift > 16 {
		shift = 16
	}

	backoff := s.baseInterval << shift
	if backoff > s.maxBackoff || backoff <= 0 {
		backoff = s.maxBackoff
	}

	return backoff
}

// surfaceStaleness re-renders the last known value in the stale style so the
// tray never silently keeps showing a fresh-looking reading
func (s *scheduler) surfaceStaleness() {
	if !s.hasLast {
		s.postUpdate(common.IconUpdate{Stale: true})
		return
	}

	icon, err := s.renderer.Render(s.lastValue, s.lastTrend, true)
	if err != nil {
		log.Error("failed to render stale icon", "error", err)
		s.postUpdate(common.IconUpdate{Stale: true})
		return
	}

	s.postUpdate(common.IconUpdate{Icon: icon, Stale: true})
}

func (s *scheduler) computeTrend(reading common.Reading, previous *common.HistoryEntry) common.Trend {
	if previous == nil {
		return common.Trend{}
	}

	delta := reading.Value - previous.Value
	direction := common.TrendFlat
	switch {
	case delta > s.cfg.DedupTolerance:
		direction = common.TrendUp
	case delta < -s.cfg.DedupTolerance:
		direction = common.TrendDown
	}

	return common.Trend{
		Direction: direction,
		Delta:     delta,
	}
}

func (s *scheduler) shouldAppend(reading common.Reading, previous *common.HistoryEntry) bool {
	if previous == nil {
		return true
	}

	return math.Abs(reading.Value-previous.Value) > s.cfg.DedupTolerance
}

// postUpdate never blocks the polling goroutine: a pending update that was
// not yet drained by the tray is replaced by the newer one
func (s *scheduler) postUpdate(update common.IconUpdate) {
	for {
		select {
		case s.updates <- update:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Start launches the polling loop on a dedicated goroutine
func (s *scheduler) Start() {
	s.mutCancel.Lock()
	defer s.mutCancel.Unlock()

	if s.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	delay := s.Process(ctx)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			log.Debug("manual poll triggered")
		}

		delay = s.Process(ctx)
		timer.Reset(delay)
	}
}

// Close stops the polling loop, aborting any in-flight fetch, and waits for
// the goroutine to drain
func (s *scheduler) Close() {
	s.mutCancel.Lock()
	defer s.mutCancel.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil
	s.wg.Wait()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *scheduler) IsInterfaceNil() bool {
	return s == nil
}
