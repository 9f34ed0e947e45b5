package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/control"
	"github.com/kilianp07/formflight/core/events"
	"github.com/kilianp07/formflight/core/logger"
	"github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/core/model"
	"github.com/kilianp07/formflight/core/output"
	"github.com/kilianp07/formflight/core/world"
	"github.com/kilianp07/formflight/internal/eventbus"
)

// TickResult describes one processed tick.
type TickResult struct {
	Tick int
	// Time is the simulation time at the end of the tick.
	Time         float64
	Reassignment assignment.Result
	Steps        map[uuid.UUID]control.StepResult
	Failures     map[uuid.UUID]error
	MeanError    float64
	MaxError     float64
	Duration     time.Duration
}

// Simulator owns the world and advances it tick by tick. Tick and Run must
// not be called concurrently with each other.
type Simulator struct {
	world   *world.World
	phase   *assignment.Phase
	tracker *control.Tracker
	solver  string
	cfg     Config
	log     logger.Logger
	sink    metrics.TickSink
	bus     eventbus.EventBus
	tickLog output.TickLog

	mu     sync.RWMutex
	tick   int
	now    float64
	times  []float64
	order  []model.Identity
	result map[uuid.UUID][]model.StateVector
}

// New builds a simulator over w. The current state of every entity is
// recorded as the first sample. Entities spawned later join the history at
// the start of the next tick.
func New(w *world.World, phase *assignment.Phase, solver string, cfg Config, log logger.Logger) (*Simulator, error) {
	if w == nil || phase == nil || log == nil {
		return nil, fmt.Errorf("sim: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := control.ParseKind(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		world:   w,
		phase:   phase,
		tracker: control.NewTracker(control.NewSolver(kind), cfg.Options()),
		solver:  solver,
		cfg:     cfg,
		log:     log,
		sink:    metrics.NopSink{},
		times:   []float64{0},
		result:  make(map[uuid.UUID][]model.StateVector),
	}
	s.register()
	return s, nil
}

// register adds the entities not seen yet to the history. Their current
// state is repeated for every earlier sample.
func (s *Simulator) register() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.world.All() {
		id := e.Identity()
		if _, ok := s.result[id.UUID]; ok {
			continue
		}
		state := e.State()
		hist := make([]model.StateVector, len(s.times))
		for i := range hist {
			hist[i] = state.Clone()
		}
		s.order = append(s.order, id)
		s.result[id.UUID] = hist
	}
}

// SetSink configures the metrics sink. Sinks implementing
// metrics.ReassignmentRecorder also receive reassignment summaries.
func (s *Simulator) SetSink(sink metrics.TickSink) {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	s.sink = sink
}

// SetBus configures the bus events are published on.
func (s *Simulator) SetBus(bus eventbus.EventBus) { s.bus = bus }

// SetTickLog configures the store tick records are appended to.
func (s *Simulator) SetTickLog(l output.TickLog) { s.tickLog = l }

// Ledger returns the assignment ledger written by the reassignment phase.
func (s *Simulator) Ledger() *assignment.Ledger { return s.phase.Ledger() }

// Time returns the current simulation time.
func (s *Simulator) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Ticks returns the number of processed ticks.
func (s *Simulator) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Times returns the sample times, starting at zero.
func (s *Simulator) Times() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float64(nil), s.times...)
}

// Series returns the recorded state history of every entity in spawn order.
func (s *Simulator) Series() []output.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]output.Series, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, output.Series{Name: id.Name, States: append([]model.StateVector(nil), s.result[id.UUID]...)})
	}
	return out
}

// Agents returns the identities of the agents currently in the world.
func (s *Simulator) Agents() []model.Identity {
	ents := s.world.Query(model.KindAgent)
	out := make([]model.Identity, len(ents))
	for i, e := range ents {
		out[i] = e.Identity()
	}
	return out
}

// Names maps every entity id to its identity.
func (s *Simulator) Names() map[uuid.UUID]model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]model.Identity, len(s.order))
	for _, id := range s.order {
		out[id.UUID] = id
	}
	return out
}

func (s *Simulator) name(id uuid.UUID) string {
	if e, ok := s.world.Get(id); ok {
		return e.Identity().Name
	}
	return id.String()
}

func (s *Simulator) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// Tick runs one reassignment phase followed by the tracking step of every
// agent. A reassignment failure aborts the tick before any agent moves and
// leaves the clock untouched. Failed tracking steps are joined into the
// returned error; the tick still completes for the other agents.
func (s *Simulator) Tick(ctx context.Context) (TickResult, error) {
	if err := ctx.Err(); err != nil {
		return TickResult{}, err
	}
	start := time.Now()
	s.mu.RLock()
	tick, t0 := s.tick, s.now
	s.mu.RUnlock()
	res := TickResult{Tick: tick, Time: t0}
	s.register()

	rr, err := s.phase.Run(s.world)
	res.Reassignment = rr
	if err != nil {
		s.log.Errorf("tick %d: reassignment failed: %v", tick, err)
		s.publish(events.ReassignmentEvent{Tick: tick, Solver: s.solver, Duration: rr.Duration, Err: err})
		s.appendLog(ctx, output.TickRecord{Tick: tick, SimTime: t0, Timestamp: time.Now(), Solver: s.solver, Error: err.Error()})
		return res, fmt.Errorf("tick %d: %w", tick, err)
	}
	pairing := s.pairing(rr)
	s.recordReassignment(tick, rr, pairing)

	ledger := s.phase.Ledger()
	var mu sync.Mutex
	res.Steps = make(map[uuid.UUID]control.StepResult)
	res.Failures = s.world.Each(ctx, model.KindAgent, func(ctx context.Context, e *world.Entity) error {
		ref, _ := ledger.Current(e.Identity().UUID)
		sr, err := s.tracker.Step(ctx, e, ref, t0, s.cfg.Dt)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Steps[e.Identity().UUID] = sr
		mu.Unlock()
		return nil
	})
	res.MeanError, res.MaxError = trackingError(res.Steps)

	s.mu.Lock()
	s.tick++
	s.now = t0 + s.cfg.Dt
	s.times = append(s.times, s.now)
	for _, id := range s.order {
		hist := s.result[id.UUID]
		// despawned entities repeat their last state
		last := hist[len(hist)-1]
		if e, ok := s.world.Get(id.UUID); ok {
			last = e.State()
		}
		s.result[id.UUID] = append(hist, last)
	}
	res.Time = s.now
	s.mu.Unlock()
	res.Duration = time.Since(start)

	stepErr := s.reportFailures(tick, res.Failures)
	s.finishTick(ctx, res, pairing)
	return res, stepErr
}

func (s *Simulator) pairing(rr assignment.Result) map[string]string {
	out := make(map[string]string, len(rr.Snapshot.Agents))
	for agent, target := range rr.Pairing(s.phase.Ledger()) {
		if target == uuid.Nil {
			continue
		}
		out[s.name(agent)] = s.name(target)
	}
	return out
}

func (s *Simulator) recordReassignment(tick int, rr assignment.Result, pairing map[string]string) {
	s.publish(events.ReassignmentEvent{
		Tick:          tick,
		Solver:        s.solver,
		Pairing:       rr.Pairing(s.phase.Ledger()),
		Switches:      rr.Switches,
		MultiAssigned: rr.MultiAssigned,
		Stale:         rr.Stale,
		Duration:      rr.Duration,
	})
	rec, ok := s.sink.(metrics.ReassignmentRecorder)
	if !ok {
		return
	}
	if err := rec.RecordReassignment(metrics.ReassignmentMetrics{
		Tick:          tick,
		Solver:        s.solver,
		Switches:      rr.Switches,
		MultiAssigned: rr.MultiAssigned,
		Stale:         rr.Stale,
		Pairing:       pairing,
		Duration:      rr.Duration,
		Time:          time.Now(),
	}); err != nil {
		s.log.Warnf("record reassignment: %v", err)
	}
}

// reportFailures publishes one event per failed agent and joins the errors
// in spawn order.
func (s *Simulator) reportFailures(tick int, failures map[uuid.UUID]error) error {
	if len(failures) == 0 {
		return nil
	}
	var errs []error
	for _, id := range s.order {
		err, ok := failures[id.UUID]
		if !ok {
			continue
		}
		s.log.Warnf("tick %d: %v", tick, err)
		s.publish(events.StepFailureEvent{Tick: tick, Agent: id.UUID, Name: id.Name, Err: err})
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Simulator) finishTick(ctx context.Context, res TickResult, pairing map[string]string) {
	if err := s.sink.RecordTick(metrics.TickMetrics{
		Tick:         res.Tick,
		SimTime:      res.Time,
		Agents:       len(res.Reassignment.Snapshot.Agents),
		StepFailures: len(res.Failures),
		MeanError:    res.MeanError,
		MaxError:     res.MaxError,
		Duration:     res.Duration,
		Time:         time.Now(),
	}); err != nil {
		s.log.Warnf("record tick: %v", err)
	}
	s.publish(events.TickEvent{
		Tick:      res.Tick,
		Time:      res.Time,
		Agents:    len(res.Reassignment.Snapshot.Agents),
		Failures:  len(res.Failures),
		MeanError: res.MeanError,
		Duration:  res.Duration,
	})
	rec := output.TickRecord{
		Tick:          res.Tick,
		SimTime:       res.Time,
		Timestamp:     time.Now(),
		Solver:        s.solver,
		Pairing:       pairing,
		Switches:      res.Reassignment.Switches,
		MultiAssigned: res.Reassignment.MultiAssigned,
		MeanError:     res.MeanError,
	}
	if len(res.Failures) > 0 {
		rec.StepFailures = make(map[string]string, len(res.Failures))
		for id, err := range res.Failures {
			rec.StepFailures[s.name(id)] = err.Error()
		}
	}
	s.appendLog(ctx, rec)
}

func (s *Simulator) appendLog(ctx context.Context, rec output.TickRecord) {
	if s.tickLog == nil {
		return
	}
	if err := s.tickLog.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warnf("append tick record: %v", err)
	}
}

// Run ticks until the configured number of steps ran or ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Infof("running %d ticks of %gs with %s", s.cfg.Steps, s.cfg.Dt, s.cfg.Integrator)
	for s.Ticks() < s.cfg.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.Tick(ctx)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var pe *assignment.PhaseError
		if errors.As(err, &pe) || !s.cfg.ContinueOnStepError {
			return err
		}
		s.log.Warnf("tick %d: %d agents failed their step, continuing", res.Tick, len(res.Failures))
	}
	s.log.Infof("run finished at t=%g", s.Time())
	return nil
}

// trackingError returns the mean and max Euclidean norm of the error states.
func trackingError(steps map[uuid.UUID]control.StepResult) (mean, peak float64) {
	if len(steps) == 0 {
		return 0, 0
	}
	for _, r := range steps {
		n := floats.Norm(r.Error, 2)
		mean += n
		if n > peak {
			peak = n
		}
	}
	return mean / float64(len(steps)), peak
}
