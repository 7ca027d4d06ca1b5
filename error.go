package etu

import (
	"github.com/stvp/rollbar"
)

// ErrorReporter sends unexpected errors to a crash reporting service
type ErrorReporter interface {
	ReportError(err error)
	// Wait blocks until queued reports are sent
	Wait()
}

type nopReporter struct{}

func (nopReporter) ReportError(error) {}

func (nopReporter) Wait() {}

type rollbarReporter struct{}

func (rollbarReporter) ReportError(err error) {
	rollbar.Error(rollbar.ERR, err)
}

func (rollbarReporter) Wait() {
	rollbar.Wait()
}

// NewErrorReporter returns a Rollbar reporter when a token is configured and reports are not
// disabled.  Otherwise errors are dropped.
func NewErrorReporter(c *Config) ErrorReporter {
	if c.NoErrorReports || c.ErrorReportToken == "" {
		return nopReporter{}
	}
	rollbar.Token = c.ErrorReportToken
	rollbar.Environment = c.Environment
	return rollbarReporter{}
}
