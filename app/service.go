// Package app wires the configuration into a runnable simulation service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/formflight/config"
	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/events"
	coremetrics "github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/core/output"
	"github.com/kilianp07/formflight/core/sim"
	"github.com/kilianp07/formflight/core/world"
	"github.com/kilianp07/formflight/infra/logger"
	"github.com/kilianp07/formflight/infra/metrics"
	"github.com/kilianp07/formflight/infra/mqtt"
	"github.com/kilianp07/formflight/internal/eventbus"
)

// Service runs one simulation and writes its outputs.
type Service struct {
	Sim     *sim.Simulator
	World   *world.World
	Rosters output.Rosters

	cfg     *config.Config
	sink    coremetrics.TickSink
	tickLog output.TickLog
	bus     *eventbus.Bus
	log     logger.Logger
}

// New creates a Service from the configuration. On error the sinks and the
// log file opened so far are released.
func New(cfg *config.Config) (svc *Service, err error) {
	if err = logger.Configure(cfg.Logging); err != nil {
		return nil, err
	}
	var sink coremetrics.TickSink
	defer func() {
		if err == nil {
			return
		}
		if sink != nil {
			err = errors.Join(err, closeSink(sink))
		}
		err = errors.Join(err, logger.Close())
	}()
	logg := logger.New("service")

	w := world.New()
	rosters, err := cfg.Scenario.Setup(w)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	solver, err := assignment.NewSolver(cfg.Assignment)
	if err != nil {
		return nil, err
	}
	phase := assignment.NewPhase(solver, assignment.NewLedger(), cfg.Assignment.PositionDim, logger.New("assignment"))
	simulator, err := sim.New(w, phase, solver.Name(), cfg.Simulation, logger.New("sim"))
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	sink, err = newSink(cfg)
	if err != nil {
		return nil, err
	}
	simulator.SetSink(sink)

	tickLog, err := output.NewTickLog(cfg.Output.TickLog)
	if err != nil {
		return nil, fmt.Errorf("tick log: %w", err)
	}
	if tickLog != nil {
		simulator.SetTickLog(tickLog)
	}

	bus := eventbus.New()
	simulator.SetBus(bus)

	logg.Infof("scenario ready: %d agents, %d targets, solver %s", len(rosters.Agents), len(rosters.Targets), solver.Name())
	return &Service{
		Sim:     simulator,
		World:   w,
		Rosters: rosters,
		cfg:     cfg,
		sink:    sink,
		tickLog: tickLog,
		bus:     bus,
		log:     logg,
	}, nil
}

func closeSink(sink coremetrics.TickSink) error {
	if c, ok := sink.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func newSink(cfg *config.Config) (coremetrics.TickSink, error) {
	sink, err := coremetrics.NewTickSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if !cfg.MQTT.Enabled {
		return sink, nil
	}
	pub, err := mqtt.NewFromConfig(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt publisher: %w", err)
	}
	return coremetrics.NewMultiSink(sink, pub), nil
}

// Run executes the simulation until it completes or ctx is cancelled, then
// writes the configured output files. Outputs are written even when the run
// stopped on an error.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if addr := s.cfg.API.Addr; addr != "" {
		go func() {
			if err := serve(ctx, addr, s.Handler()); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	sub := s.bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.watch(sub)
	}()

	runErr := s.Sim.Run(ctx)
	s.bus.Unsubscribe(sub)
	<-done
	if err := s.WriteOutputs(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (s *Service) watch(sub <-chan eventbus.Event) {
	for e := range sub {
		switch ev := e.(type) {
		case events.ReassignmentEvent:
			if ev.Switches > 0 {
				s.log.Debugw("assignment changed", map[string]any{"tick": ev.Tick, "switches": ev.Switches, "multi_assigned": ev.MultiAssigned})
			}
		case events.StepFailureEvent:
			s.log.Debugw("agent step failed", map[string]any{"tick": ev.Tick, "agent": ev.Name, "error": ev.Err.Error()})
		case events.TickEvent:
			s.log.Debugw("tick", map[string]any{"tick": ev.Tick, "time": ev.Time, "mean_error": ev.MeanError})
		}
	}
}

// WriteOutputs writes the assignment history, the rosters and the state
// history into the output directory. It does nothing when no directory is
// configured.
func (s *Service) WriteOutputs() error {
	oc := s.cfg.Output
	if oc.Dir == "" {
		return nil
	}
	var errs []error
	if err := output.WriteAssignments(oc.Path(oc.Assignments), s.Sim.Ledger().HistorySnapshot(), s.Sim.Names()); err != nil {
		errs = append(errs, fmt.Errorf("write assignments: %w", err))
	}
	if err := output.WriteEntities(oc.Path(oc.Entities), s.Rosters); err != nil {
		errs = append(errs, fmt.Errorf("write entities: %w", err))
	}
	if err := output.WriteResultsCSV(oc.Path(oc.Results), s.Sim.Times(), s.Sim.Series()); err != nil {
		errs = append(errs, fmt.Errorf("write results: %w", err))
	}
	if len(errs) == 0 {
		s.log.Infof("outputs written to %s", oc.Dir)
	}
	return errors.Join(errs...)
}

// Close releases the sinks, the tick log, the event bus and the log file.
func (s *Service) Close() error {
	errs := []error{closeSink(s.sink)}
	if s.tickLog != nil {
		errs = append(errs, s.tickLog.Close())
	}
	s.bus.Close()
	errs = append(errs, logger.Close())
	return errors.Join(errs...)
}
