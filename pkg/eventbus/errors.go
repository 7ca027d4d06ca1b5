package eventbus

import "errors"

// ErrShutdownTimeout is returned by Shutdown when the context ends before every subscriber
// closed its done channel
var ErrShutdownTimeout = errors.New("eventbus: context ended before all subscribers exited")

// ErrClosed is returned by Dispatch after Shutdown
var ErrClosed = errors.New("eventbus: bus is shut down")
