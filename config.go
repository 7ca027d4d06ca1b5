package etu

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sallywang147/ETU/pkg/stat"
)

// Config holds everything the etu command needs to build and drive a stage
type Config struct {
	ValueWidth uint
	SumSqWidth uint
	CountWidth uint
	Mode       stat.Mode
	// Bound is the decimal decision threshold used when an input line omits bound_sq
	Bound string
	// BoundScale is the fixed-point factor applied to Bound squared
	BoundScale string
	Trace      bool
	LogLevel   zerolog.Level

	ErrorReportToken string
	NoErrorReports   bool
	Environment      string
}

// ConfigOption sets one configuration value
type ConfigOption func(c *Config) error

// New applies options over the defaults and returns every error found rather than the first
func New(options ...ConfigOption) (*Config, []error) {
	c := &Config{
		ValueWidth:  stat.DefaultWidths.Value,
		SumSqWidth:  stat.DefaultWidths.SumSq,
		CountWidth:  stat.DefaultWidths.Count,
		Mode:        stat.Truncate,
		BoundScale:  "1",
		LogLevel:    zerolog.InfoLevel,
		Environment: "production",
	}
	if env := os.Getenv("environment"); env != "" {
		c.Environment = env
	}

	var errors []error
	for _, option := range options {
		if err := option(c); err != nil {
			errors = append(errors, err)
		}
	}
	if err := c.Widths().Validate(); err != nil {
		errors = append(errors, err)
	}
	if _, _, err := c.BoundSq(); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return c, nil
}

// Widths returns the configured port widths
func (c *Config) Widths() stat.Widths {
	return stat.Widths{Value: c.ValueWidth, SumSq: c.SumSqWidth, Count: c.CountWidth}
}

// Evaluator builds the evaluator described by the configuration
func (c *Config) Evaluator(log zerolog.Logger) (*stat.Evaluator, error) {
	w := c.Widths()
	return stat.New(stat.WithWidths(w.Value, w.SumSq, w.Count), stat.WithMode(c.Mode), stat.WithLogger(log))
}

// BoundSq encodes the configured bound.  The second result is false when no bound is set.
func (c *Config) BoundSq() (uint64, bool, error) {
	if c.Bound == "" {
		return 0, false, nil
	}
	scale, err := stat.NewScale(c.BoundScale)
	if err != nil {
		return 0, false, err
	}
	b, err := scale.BoundSq(c.Bound, c.Widths())
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

func parseWidth(name, value string) (uint, error) {
	w, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("could not convert %s to a bit width: %s", name, value)
	}
	return uint(w), nil
}

// ValueWidth sets the width of cum_val and bound_sq
func ValueWidth(width string) ConfigOption {
	return func(c *Config) error {
		w, err := parseWidth("value-width", width)
		c.ValueWidth = w
		return err
	}
}

// SumSqWidth sets the width of cum_sq
func SumSqWidth(width string) ConfigOption {
	return func(c *Config) error {
		w, err := parseWidth("sumsq-width", width)
		c.SumSqWidth = w
		return err
	}
}

// CountWidth sets the width of n
func CountWidth(width string) ConfigOption {
	return func(c *Config) error {
		w, err := parseWidth("count-width", width)
		c.CountWidth = w
		return err
	}
}

// Mode sets the narrowing mode by name
func Mode(mode string) ConfigOption {
	return func(c *Config) error {
		m, err := stat.ParseMode(mode)
		c.Mode = m
		return err
	}
}

// Bound sets the decimal decision threshold
func Bound(bound string) ConfigOption {
	return func(c *Config) error {
		c.Bound = bound
		return nil
	}
}

// BoundScale sets the fixed-point factor of bound_sq
func BoundScale(scale string) ConfigOption {
	return func(c *Config) error {
		c.BoundScale = scale
		return nil
	}
}

// Trace logs every intermediate of every valid input
func Trace(on bool) ConfigOption {
	return func(c *Config) error {
		c.Trace = on
		return nil
	}
}

// LogLevel sets the zerolog level by name
func LogLevel(level string) ConfigOption {
	return func(c *Config) error {
		l, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("unknown log level: %s", level)
		}
		c.LogLevel = l
		return nil
	}
}

// ErrorReportToken enables crash reports to Rollbar
func ErrorReportToken(token string) ConfigOption {
	return func(c *Config) error {
		c.ErrorReportToken = token
		return nil
	}
}

// NoErrorReports disables crash reports even when a token is set
func NoErrorReports(on bool) ConfigOption {
	return func(c *Config) error {
		c.NoErrorReports = on
		return nil
	}
}

// Environment names the deployment in crash reports
func Environment(env string) ConfigOption {
	return func(c *Config) error {
		c.Environment = env
		return nil
	}
}
