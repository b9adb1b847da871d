package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Pruner is the dependency that actually does the work.
// The scheduler will call Prune on a fixed interval.
type Pruner interface {
	Prune(ctx context.Context) error
}

// SchedulerService exposes a small control surface for the scheduler.
// Start/Stop are synchronous controls, and IsRunning reports
// whether the scheduler is currently accepting ticks.
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// DefaultInterval is used when no custom interval is provided.
const DefaultInterval = time.Hour

// DefaultRunTimeout bounds a single prune run.
const DefaultRunTimeout = 30 * time.Second

// controlTimeout is how long we wait for the control loop to
// accept a Start/Stop command and acknowledge it.
const controlTimeout = 2 * time.Second

var (
	ErrNotResponding = errors.New("scheduler: control loop not responding")
	ErrAckTimeout    = errors.New("scheduler: acknowledgement timeout")
)

type controlOp int

const (
	opStart controlOp = iota
	opStop
	opStatus
)

// controlMsg is sent over the ctrl channel to drive the scheduler's state.
type controlMsg struct {
	op   controlOp
	resp chan bool
}

// schedulerService owns the internal state and runs the control loop.
// All mutable state lives in the loop goroutine, so we don't need locks.
type schedulerService struct {
	pruner     Pruner
	interval   time.Duration
	runTimeout time.Duration
	logger     zerolog.Logger
	ctrl       chan controlMsg
}

// NewSchedulerService creates a new scheduler with the given interval
// and run timeout. If any of them is <= 0, defaults are used instead.
func NewSchedulerService(
	pruner Pruner,
	interval time.Duration,
	runTimeout time.Duration,
	logger zerolog.Logger,
) SchedulerService {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	s := &schedulerService{
		pruner:     pruner,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
		ctrl:       make(chan controlMsg),
	}

	// The control loop lives for the lifetime of the process.
	go s.loop()

	return s
}

// Start tells the scheduler to begin processing ticks.
// It blocks until the internal loop has acknowledged the state change.
func (s *schedulerService) Start() error {
	return s.send(opStart)
}

// Stop tells the scheduler to stop accepting new ticks.
// If a run is in progress, Stop waits until it finishes (or times out)
// before returning.
func (s *schedulerService) Stop() error {
	return s.send(opStop)
}

func (s *schedulerService) send(op controlOp) error {
	resp := make(chan bool, 1)
	msg := controlMsg{op: op, resp: resp}

	select {
	case s.ctrl <- msg:
	case <-time.After(controlTimeout):
		return ErrNotResponding
	}

	// A Stop issued mid-run is acknowledged only once the run is over,
	// which may take up to runTimeout.
	wait := controlTimeout
	if op == opStop {
		wait += s.runTimeout
	}

	select {
	case <-resp:
		return nil
	case <-time.After(wait):
		return ErrAckTimeout
	}
}

// IsRunning reports whether the scheduler is currently in "running" mode.
// It does not mean that a run is actively executing.
func (s *schedulerService) IsRunning() bool {
	resp := make(chan bool, 1)
	s.ctrl <- controlMsg{op: opStatus, resp: resp}
	return <-resp
}

// loop owns all mutable state and reacts to either control messages or
// timer ticks.
func (s *schedulerService) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	running := false
	inRun := false
	done := make(chan error, 1)

	// pendingStops are answered once the current run finishes, one per Stop
	// called mid-run.
	var pendingStops []chan bool

	for {
		select {
		case msg := <-s.ctrl:
			switch msg.op {
			case opStart:
				if !running {
					s.logger.Info().
						Dur("interval", s.interval).
						Dur("run_timeout", s.runTimeout).
						Msg("retention scheduler started")
				}
				running = true
				msg.resp <- true

			case opStop:
				if !running && !inRun {
					s.logger.Debug().Msg("stop requested, already idle")
					msg.resp <- true
					continue
				}

				running = false

				if inRun {
					s.logger.Info().Msg("stop requested, waiting for current run")
					pendingStops = append(pendingStops, msg.resp)
				} else {
					s.logger.Info().Msg("retention scheduler stopped")
					msg.resp <- true
				}

			case opStatus:
				msg.resp <- running
			}

		case <-ticker.C:
			if !running || inRun {
				continue
			}

			inRun = true
			s.logger.Debug().Msg("triggering prune")

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
				defer cancel()
				done <- s.pruner.Prune(ctx)
			}()

		case err := <-done:
			if err != nil {
				s.logger.Error().Err(err).Msg("prune failed")
			}

			inRun = false

			if len(pendingStops) > 0 {
				for _, resp := range pendingStops {
					resp <- true
				}
				pendingStops = nil
				s.logger.Info().Msg("retention scheduler stopped")
			}
		}
	}
}
