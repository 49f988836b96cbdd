package probe

import (
	"context"
	"time"
)

// FailureKind tags why a probe attempt produced no usable outcome.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNameResolution
	FailureTimeout
	FailureSocket
	FailureSocketCreation
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNameResolution:
		return "name_resolution"
	case FailureTimeout:
		return "timeout"
	case FailureSocket:
		return "socket_error"
	case FailureSocketCreation:
		return "socket_creation"
	case FailureInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Outcome is what a single probe measured.
//
// On a failed attempt it still carries whatever was captured before the
// error (e.g. TCPConnected and TCPTime when only the read timed out).
type Outcome struct {
	RequestText  string // request with CRLF rendered as `\r\n`
	TCPConnected bool
	TCPTime      time.Duration
	HTTPTime     time.Duration
	TotalTime    time.Duration
	ResponseSize int
	HTTPSuccess  bool
	Body         []byte
}

// Result is the one message a worker hands to the coordinator.
// Failure != FailureNone marks it as a failure marker: it is logged
// and counted but never persisted.
type Result struct {
	TransactionID string
	Target        string
	Outcome       Outcome
	Failure       FailureKind
	Err           error
}

func (r Result) Failed() bool { return r.Failure != FailureNone }

// Prober performs one probe attempt against a target.
type Prober interface {
	Probe(ctx context.Context, txnID, target string, timeout time.Duration) Result
}
