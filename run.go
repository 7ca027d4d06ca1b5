package etu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sallywang147/ETU/pkg/metric"
	"github.com/sallywang147/ETU/pkg/stat"
)

// LineError reports an input line that could not be parsed
type LineError struct {
	Line int
	Msg  string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Runner streams input tuples through one stage
type Runner struct {
	stage    *stat.Stage
	counters *metric.StageCounters
	boundSq  uint64
	hasBound bool
	trace    bool
	log      zerolog.Logger
	step     uint64
}

// NewRunner builds the evaluator and stage described by c
func NewRunner(c *Config, log zerolog.Logger) (*Runner, error) {
	eval, err := c.Evaluator(log)
	if err != nil {
		return nil, err
	}
	boundSq, hasBound, err := c.BoundSq()
	if err != nil {
		return nil, err
	}
	counters := metric.NewStageCounters(metric.NewName("etu_stage", map[string]string{"mode": c.Mode.String()}))
	stage, err := stat.NewStage(eval, stat.WithCounters(counters))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("widths", eval.Widths().String()).
		Str("mode", eval.Mode().String()).
		Bool("bound", hasBound).
		Uint64("bound_sq", boundSq).
		Msg("stage ready")
	return &Runner{
		stage:    stage,
		counters: counters,
		boundSq:  boundSq,
		hasBound: hasBound,
		trace:    c.Trace,
		log:      log,
	}, nil
}

// Metric returns the stage counters
func (r *Runner) Metric() map[string]float64 {
	return r.counters.Metric()
}

// Run reads one tuple per line from in and writes one output line per step to out.  After
// the input is exhausted a final invalid step drains the result still held by the stage.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		input, err := r.parseInput(line, fields)
		if err != nil {
			return err
		}
		if err := r.stepOnce(w, input); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if err := r.stepOnce(w, stat.Input{}); err != nil {
		return err
	}
	r.log.Debug().Interface("metric", r.Metric()).Msg("input drained")
	return nil
}

func (r *Runner) stepOnce(w io.Writer, in stat.Input) error {
	out, t := r.stage.StepTrace(in)
	r.step++
	if r.trace && in.Valid {
		r.log.Info().
			Uint64("step", r.step).
			Bool("degenerate", t.Degenerate).
			Int64("mean", t.Mean).
			Uint64("mean_abs", t.MeanAbs).
			Uint64("m2", t.M2).
			Uint64("e_x2", t.EX2).
			Uint64("e_x2_trunc", t.EX2Narrow).
			Uint64("m2_low", t.M2Narrow).
			Uint64("variance", t.Variance).
			Str("left", t.Left.String()).
			Uint64("right", t.Right).
			Bool("early_terminate", t.EarlyTerminate).
			Msg("trace")
	}
	_, err := fmt.Fprintf(w, "%d %d %d\n", r.step, bit(out.Valid), bit(out.EarlyTerminate))
	return err
}

func (r *Runner) parseInput(line int, fields []string) (stat.Input, error) {
	if len(fields) < 4 || len(fields) > 5 {
		return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("expected 4 or 5 fields, got %d", len(fields))}
	}
	valid, err := strconv.ParseBool(fields[0])
	if err != nil {
		return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("valid must be 1, 0, true or false, got %s", fields[0])}
	}
	cumVal, err := strconv.ParseInt(fields[1], 0, 64)
	if err != nil {
		return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("invalid cum_val %s", fields[1])}
	}
	cumSq, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("invalid cum_sq %s", fields[2])}
	}
	n, err := strconv.ParseUint(fields[3], 0, 64)
	if err != nil {
		return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("invalid n %s", fields[3])}
	}

	boundSq := r.boundSq
	switch {
	case len(fields) == 5:
		boundSq, err = strconv.ParseUint(fields[4], 0, 64)
		if err != nil {
			return stat.Input{}, LineError{Line: line, Msg: fmt.Sprintf("invalid bound_sq %s", fields[4])}
		}
	case !r.hasBound:
		return stat.Input{}, LineError{Line: line, Msg: "no bound_sq on the line and no --bound configured"}
	}

	return stat.Input{Valid: valid, CumVal: cumVal, CumSq: cumSq, N: n, BoundSq: boundSq}, nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
