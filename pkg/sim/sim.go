// Package sim measures how many samples the early termination stage needs.  Each simulated
// neuron draws fixed-point samples, folds them into an accumulator and steps its own stage
// once per sample.  The controller stops a neuron when the stage reports early termination;
// because of the one step latency that report concerns the tuple from the previous sample,
// so one extra sample has already been drawn when the neuron stops.
package sim

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gstat "gonum.org/v1/gonum/stat"

	"github.com/sallywang147/ETU/pkg/accum"
	"github.com/sallywang147/ETU/pkg/eventbus"
	"github.com/sallywang147/ETU/pkg/metric"
	"github.com/sallywang147/ETU/pkg/rng"
	"github.com/sallywang147/ETU/pkg/stat"
)

const (
	// Terminated is dispatched when the stage stopped a neuron
	Terminated = eventbus.EventType("terminated")
	// Exhausted is dispatched when a neuron hit the sample limit or a port width first
	Exhausted = eventbus.EventType("exhausted")
)

// Config describes one simulation run
type Config struct {
	// Neurons is the number of independent neurons
	Neurons int
	// Mean and StdDev describe the real-valued samples of every neuron
	Mean   float64
	StdDev float64
	// Scale is the fixed-point factor samples are encoded with
	Scale float64
	// BoundSq is presented to the stage with every tuple
	BoundSq uint64
	// MaxSamples caps the samples drawn per neuron
	MaxSamples int
	// Seed makes runs reproducible; neuron i uses Seed+i
	Seed int64
	// Workers bounds the neurons simulated concurrently, 0 means unbounded
	Workers int
}

// Outcome is the fate of one neuron
type Outcome struct {
	Neuron     int
	Samples    uint64
	Terminated bool
	Reason     string
}

// Result summarizes a run
type Result struct {
	Neurons    int
	Terminated int
	// MeanSamples and StdDevSamples describe the samples drawn by terminated neurons
	MeanSamples   float64
	StdDevSamples float64
	Outcomes      []Outcome
	Metric        map[string]float64
}

// TerminatedFraction is the share of neurons stopped early
func (r Result) TerminatedFraction() float64 {
	if r.Neurons == 0 {
		return 0
	}
	return float64(r.Terminated) / float64(r.Neurons)
}

func (c Config) validate() error {
	switch {
	case c.Neurons < 1:
		return fmt.Errorf("simulation needs at least one neuron")
	case c.MaxSamples < 1:
		return fmt.Errorf("simulation needs a positive sample limit")
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive")
	case c.StdDev < 0:
		return fmt.Errorf("standard deviation must not be negative")
	}
	return nil
}

// Run simulates cfg.Neurons neurons against eval and collects their outcomes
func Run(ctx context.Context, eval *stat.Evaluator, cfg Config, log zerolog.Logger) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	bus := eventbus.New()
	events, done := bus.Subscribe()
	outcomes := make([]Outcome, 0, cfg.Neurons)
	go func() {
		defer close(done)
		for evt := range events {
			if o, ok := evt.Data.(Outcome); ok {
				outcomes = append(outcomes, o)
			}
		}
	}()

	counters := metric.NewStageCounters(metric.NewName("etu_stage", map[string]string{
		"mode": eval.Mode().String(),
	}).Annotate("simulated"))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := 0; i < cfg.Neurons; i++ {
		i := i
		g.Go(func() error {
			o, err := runNeuron(gctx, eval, counters, cfg, i)
			if err != nil {
				return err
			}
			evt := Exhausted
			if o.Terminated {
				evt = Terminated
			}
			log.Debug().Int("neuron", i).Uint64("samples", o.Samples).Str("reason", o.Reason).Msg(string(evt))
			return bus.Dispatch(gctx, eventbus.NewEvent(evt, o), eventbus.Topic("neuron-"+strconv.Itoa(i)))
		})
	}
	runErr := g.Wait()
	if err := bus.Shutdown(context.Background()); err != nil {
		return Result{}, err
	}
	if runErr != nil {
		return Result{}, runErr
	}

	res := Result{Neurons: cfg.Neurons, Outcomes: outcomes, Metric: counters.Metric()}
	var samples []float64
	for _, o := range outcomes {
		if o.Terminated {
			res.Terminated++
			samples = append(samples, float64(o.Samples))
		}
	}
	if len(samples) > 0 {
		res.MeanSamples, res.StdDevSamples = gstat.MeanStdDev(samples, nil)
	}
	return res, nil
}

func runNeuron(ctx context.Context, eval *stat.Evaluator, counters *metric.StageCounters, cfg Config, i int) (Outcome, error) {
	w := eval.Widths()
	stage, err := stat.NewStage(eval, stat.WithCounters(counters))
	if err != nil {
		return Outcome{}, err
	}
	acc, err := accum.New(w)
	if err != nil {
		return Outcome{}, err
	}
	src := rng.NewNormal(cfg.Mean, cfg.StdDev, cfg.Scale,
		rng.WithSeed(cfg.Seed+int64(i)),
		rng.WithRange(w.MinCumVal(), w.MaxCumVal()))

	o := Outcome{Neuron: i}
	for s := 0; s < cfg.MaxSamples; s++ {
		if err := ctx.Err(); err != nil {
			return o, err
		}
		if err := acc.Add(src.Sample()); err != nil {
			o.Samples, o.Reason = acc.N(), err.Error()
			return o, nil
		}
		out := stage.Step(acc.Input(cfg.BoundSq))
		if out.Valid && out.EarlyTerminate {
			o.Samples, o.Terminated, o.Reason = acc.N(), true, "early termination"
			return o, nil
		}
	}
	// the last tuple is still in the register
	if out := stage.Step(stat.Input{}); out.Valid && out.EarlyTerminate {
		o.Samples, o.Terminated, o.Reason = acc.N(), true, "early termination"
		return o, nil
	}
	o.Samples, o.Reason = acc.N(), "sample limit"
	return o, nil
}
