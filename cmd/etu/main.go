package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sallywang147/ETU"
)

func main() {
	files, opts, err := etu.ParseCommandLine()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Printf("Could not parse configuration: %s\n\nUse etu --help for options\n", err)
		}
		os.Exit(1)
	}

	cfg, errs := etu.New(opts...)
	if len(errs) > 0 {
		fmt.Println("Error in config:")
		for _, e := range errs {
			fmt.Println(e)
		}
		os.Exit(1)
	}

	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.LogLevel)
	reporter := etu.NewErrorReporter(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, files, logger); err != nil {
		logger.Error().Err(err).Msg("stopped")
		var lerr etu.LineError
		if !errors.As(err, &lerr) && !errors.Is(err, context.Canceled) {
			reporter.ReportError(err)
		}
		reporter.Wait()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *etu.Config, files []string, logger zerolog.Logger) error {
	runner, err := etu.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if len(files) > 0 {
		readers := make([]io.Reader, 0, len(files))
		for _, name := range files {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			readers = append(readers, f)
		}
		in = io.MultiReader(readers...)
	}

	if err := runner.Run(ctx, in, os.Stdout); err != nil {
		return err
	}
	logger.Debug().Interface("metric", runner.Metric()).Msg("done")
	return nil
}
