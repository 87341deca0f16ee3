// Package audit records bootstrap config validation and publish runs.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/newtron-network/bootcfg/pkg/util"
)

// Operation names the command that produced an event
type Operation string

const (
	OpValidate Operation = "validate"
	OpCheck    Operation = "check"
	OpPublish  Operation = "publish"
)

// Event is one audited run against one input file
type Event struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	User       string        `json:"user"`
	Operation  Operation     `json:"operation"`
	Source     string        `json:"source"`
	ConfigType string        `json:"config_type,omitempty"`
	SystemMode string        `json:"system_mode,omitempty"`
	Target     string        `json:"target,omitempty"` // publish destination
	Sections   int           `json:"sections,omitempty"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Section    string        `json:"section,omitempty"` // section named by a config failure
	Key        string        `json:"key,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Filter selects events in Query
type Filter struct {
	User        string
	Operation   Operation
	Source      string
	ConfigType  string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(user string, op Operation, source string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		Operation: op,
		Source:    source,
	}
}

// WithConfigType records the config type the file was validated as
func (e *Event) WithConfigType(ct string) *Event {
	e.ConfigType = ct
	return e
}

// WithSystemMode records the deployment mode the run resolved
func (e *Event) WithSystemMode(mode string) *Event {
	e.SystemMode = mode
	return e
}

// WithTarget records where the output was published
func (e *Event) WithTarget(target string) *Event {
	e.Target = target
	return e
}

// WithSections records how many output sections were produced
func (e *Event) WithSections(n int) *Event {
	e.Sections = n
	return e
}

// WithSuccess marks the run as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	e.Error = ""
	return e
}

// WithError marks the run as failed. A config failure also records the
// section and key it names.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err == nil {
		return e
	}
	e.Error = err.Error()
	var ce *util.ConfigError
	if errors.As(err, &ce) {
		e.Section = ce.Section
		e.Key = ce.Key
	}
	return e
}

// WithDuration sets the run duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}
