package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrRequestFailed is the single failure outcome the console reacts to.
// Every *RequestError matches it with errors.Is.
var ErrRequestFailed = errors.New("gateway: request failed")

// Kind classifies a failure for logging only.
type Kind string

const (
	KindNetwork Kind = "network"
	KindServer  Kind = "server"
	KindDecode  Kind = "decode"
)

// RequestError describes a failed backend call.
type RequestError struct {
	Op         string
	Kind       Kind
	StatusCode int
	RequestID  string
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("gateway: %s: %s failure", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.RequestID != "" {
		msg += " [request " + e.RequestID + "]"
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// LogAttrs reports the request metadata the logbook keeps with an entry.
func (e *RequestError) LogAttrs() []string {
	attrs := []string{"op=" + strings.ReplaceAll(e.Op, " ", "-"), "kind=" + string(e.Kind)}
	if e.StatusCode != 0 {
		attrs = append(attrs, "status="+strconv.Itoa(e.StatusCode))
	}
	if e.RequestID != "" {
		attrs = append(attrs, "req="+e.RequestID)
	}
	return attrs
}
