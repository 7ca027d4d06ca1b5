package etu

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-yaml/yaml"
	"github.com/spf13/pflag"
)

type options struct {
	options []ConfigOption
	err     error
}

// ParseCommandLine reads flags, or a YAML file passed with -c, into functional options.
// The remaining arguments name input files.
func ParseCommandLine() ([]string, []ConfigOption, error) {
	pf := createFlagSet()
	return parse(os.Args[1:], pf)
}

func parse(args []string, pf *pflag.FlagSet) ([]string, []ConfigOption, error) {
	options := options{}
	if err := pf.ParseAll(args, parseFlag(&options)); err != nil {
		return pf.Args(), options.options, err
	}
	return pf.Args(), options.options, options.err
}

func createFlagSet() *pflag.FlagSet {
	pf := pflag.NewFlagSet("etu", pflag.ContinueOnError)
	pf.Usage = func() {
		fmt.Printf("Usage of etu:\netu <options> [input files]\n\nEach input line is: valid cum_val cum_sq n [bound_sq]\n")
		fmt.Printf("Each output line is: step valid early_terminate, one step after its input.\n")
		fmt.Printf("\n%s", pf.FlagUsagesWrapped(10))
	}

	pf.StringP("config", "c", "", "Use yaml configuration file")
	pf.Uint("value-width", 16, "Bit width of cum_val and bound_sq, and of both narrowing points")
	pf.Uint("sumsq-width", 32, "Bit width of cum_sq, must exceed value-width")
	pf.Uint("count-width", 16, "Bit width of the sample count n")
	pf.String("mode", "truncate", "Narrowing mode: truncate, saturate or round")
	pf.String("bound", "", "Decimal decision threshold used when an input line omits bound_sq (e.g. 1.96)")
	pf.String("bound-scale", "1", "Fixed-point factor applied to the squared bound")
	pf.Bool("trace", false, "Log every intermediate value of every valid input")
	pf.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	pf.String("error-report-token", "", "Rollbar token; unexpected errors are reported only when set")
	pf.Bool("no-error-reports", false, "Do not send reports when there are unexpected errors")
	pf.String("environment", "", "Environment name attached to error reports")

	return pf
}

func parseFlag(o *options) func(*pflag.Flag, string) error {
	return func(flag *pflag.Flag, value string) error {
		switch flag.Name {
		case "config":
			opts, err := parseFromFile(value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, opts...)
		default:
			option, err := handleOption(flag.Name, value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, option)
		}
		return nil
	}
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "value-width":
		return ValueWidth(value), nil
	case "sumsq-width":
		return SumSqWidth(value), nil
	case "count-width":
		return CountWidth(value), nil
	case "mode":
		return Mode(value), nil
	case "bound":
		return Bound(value), nil
	case "bound-scale":
		return BoundScale(value), nil
	case "trace":
		on, err := parseBool(name, value)
		return Trace(on), err
	case "log-level":
		return LogLevel(value), nil
	case "error-report-token":
		return ErrorReportToken(value), nil
	case "no-error-reports":
		on, err := parseBool(name, value)
		return NoErrorReports(on), err
	case "environment":
		return Environment(value), nil
	default:
		return nil, fmt.Errorf("unknown option: %s", name)
	}
}

func parseBool(name, value string) (bool, error) {
	if value == "" {
		return true, nil
	}
	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("option %s expects true or false, got %s", name, value)
	}
	return on, nil
}

func parseFromFile(fpath string) ([]ConfigOption, error) {
	var options []ConfigOption
	data, err := os.ReadFile(fpath)
	if err != nil {
		return options, err
	}

	cfg := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return options, err
	}
	for k, v := range cfg {
		var value string
		switch v := v.(type) {
		case string:
			value = v
		case int:
			value = strconv.Itoa(v)
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			return options, fmt.Errorf("could not process config key %s, unknown type", k)
		}
		opt, err := handleOption(k, value)
		if err != nil {
			return options, err
		}
		options = append(options, opt)
	}
	return options, nil
}
