package device

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed device call so callers can decide whether a
// retry makes sense. The client itself never retries.
type ErrorKind int

const (
	// KindTransport covers unreachable hosts and timeouts.
	KindTransport ErrorKind = iota
	// KindProtocol covers non-2xx responses, including device-side
	// rejections of a command.
	KindProtocol
	// KindPayload covers unparseable or structurally wrong response bodies.
	KindPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindPayload:
		return "payload"
	}
	return "unknown"
}

// Error is the typed failure returned by every Client operation.
type Error struct {
	Kind   ErrorKind
	Op     string // endpoint operation, e.g. "info", "start"
	Status int    // HTTP status for protocol errors, 0 otherwise
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("device %s: %s error: status %d: %v", e.Op, e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("device %s: %s error: status %d", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("device %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on error kind with errors.Is(err, &Error{Kind: ...}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf extracts the error kind, defaulting to KindTransport for plain
// network failures that escaped classification.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// transportErr classifies an http.Client failure. Deadline expiry and
// net.Error timeouts count as transport: the device never answered.
func transportErr(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("timeout: %w", err)}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("timeout: %w", err)}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
