package dispatch

import (
	"fmt"
	"time"
)

// Envelope is the uniform success/error wrapper produced by every
// dispatch. Exactly one of Data and Error is meaningful: Data only when
// Success is true, Error only when it is false.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Success wraps a handler result in a success envelope stamped with the
// current UTC time.
func Success(data any) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Failure creates a failure envelope carrying message.
func Failure(message string) Envelope {
	return Envelope{
		Success:   false,
		Error:     message,
		Timestamp: time.Now().UTC(),
	}
}

// Failuref creates a failure envelope with a formatted message.
func Failuref(format string, args ...any) Envelope {
	return Failure(fmt.Sprintf(format, args...))
}
