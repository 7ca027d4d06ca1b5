package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sallywang147/ETU/pkg/sim"
	"github.com/sallywang147/ETU/pkg/stat"
)

func main() {
	pf := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	neurons := pf.Int("neurons", 1000, "Number of simulated neurons")
	mean := pf.Float64("mean", 0, "True mean of every neuron's samples")
	stddev := pf.Float64("stddev", 1, "True standard deviation of every neuron's samples")
	scale := pf.Float64("scale", 16, "Fixed-point factor samples are encoded with")
	bound := pf.String("bound", "2", "Decimal decision threshold, squared exactly into bound_sq")
	boundScale := pf.String("bound-scale", "1", "Fixed-point factor applied to the squared bound")
	maxSamples := pf.Int("max-samples", 1000, "Samples drawn before a neuron gives up")
	valueWidth := pf.Uint("value-width", stat.DefaultWidths.Value, "Bit width of cum_val and bound_sq")
	sumSqWidth := pf.Uint("sumsq-width", stat.DefaultWidths.SumSq, "Bit width of cum_sq")
	countWidth := pf.Uint("count-width", stat.DefaultWidths.Count, "Bit width of n")
	mode := pf.String("mode", "truncate", "Narrowing mode: truncate, saturate or round")
	seed := pf.Int64("seed", 1, "Seed of the first neuron, neuron i uses seed+i")
	workers := pf.Int("workers", 0, "Neurons simulated at once, 0 for no limit")
	level := pf.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	if err := pf.Parse(os.Args[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Printf("Could not parse flags: %s\n", err)
		}
		os.Exit(1)
	}

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Printf("Unknown log level: %s\n", *level)
		os.Exit(1)
	}
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	m, err := stat.ParseMode(*mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad mode")
	}
	eval, err := stat.New(stat.WithWidths(*valueWidth, *sumSqWidth, *countWidth), stat.WithMode(m), stat.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("bad widths")
	}
	s, err := stat.NewScale(*boundScale)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad bound scale")
	}
	boundSq, err := s.BoundSq(*bound, eval.Widths())
	if err != nil {
		logger.Fatal().Err(err).Msg("bad bound")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := sim.Run(ctx, eval, sim.Config{
		Neurons:    *neurons,
		Mean:       *mean,
		StdDev:     *stddev,
		Scale:      *scale,
		BoundSq:    boundSq,
		MaxSamples: *maxSamples,
		Seed:       *seed,
		Workers:    *workers,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		stop()
		os.Exit(1)
	}

	fmt.Printf("Time Elapsed: %v\n", time.Since(start))
	fmt.Printf("widths=%s mode=%s bound_sq=%d\n", eval.Widths(), eval.Mode(), boundSq)
	fmt.Printf("terminated %d/%d (%1.4f)\n", res.Terminated, res.Neurons, res.TerminatedFraction())
	fmt.Printf("samples to termination: mean=%1.3f stddev=%1.3f\n", res.MeanSamples, res.StdDevSamples)

	keys := make([]string, 0, len(res.Metric))
	for k := range res.Metric {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s %.0f\n", k, res.Metric[k])
	}
}
