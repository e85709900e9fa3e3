package scheduler

import "fmt"

// ErrKind classifies a scheduler-facing error so callers can branch on
// it with errors.As instead of string matching.
type ErrKind string

const (
	// ConfigNotFound means a required preset file is missing.
	ConfigNotFound ErrKind = "config_not_found"
	// ConfigMalformed means a preset file exists but failed to parse or
	// is missing a required field.
	ConfigMalformed ErrKind = "config_malformed"
	// ReferenceUnresolved means a process names an affinity/non-affinity
	// target that does not exist.
	ReferenceUnresolved ErrKind = "reference_unresolved"
	// Infeasible means the solver proved no assignment satisfies every
	// constraint. This is a normal outcome, not a bug.
	Infeasible ErrKind = "infeasible"
	// SolverInternal means the solver reported MODEL_INVALID or another
	// condition that indicates a bug in constraint construction.
	SolverInternal ErrKind = "solver_internal"
	// Overflow means scaled integer demand or capacity exceeded the
	// range the solver's integer variables can represent.
	Overflow ErrKind = "overflow"
)

// Error is the typed error returned by config loading and scheduling.
type Error struct {
	Kind ErrKind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigNotFoundError wraps a missing-file error from pkg/config.
func NewConfigNotFoundError(path string, err error) *Error {
	return &Error{Kind: ConfigNotFound, Path: path, Msg: "file not found", Err: err}
}

// NewConfigMalformedError wraps a parse or validation error from
// pkg/config, naming the index of the offending entry when known.
func NewConfigMalformedError(path string, index int, field string, err error) *Error {
	msg := fmt.Sprintf("entry %d: field %q invalid or missing", index, field)
	if field == "" {
		msg = "invalid document"
	}
	return &Error{Kind: ConfigMalformed, Path: path, Msg: msg, Err: err}
}

// NewSolverInternalError wraps a MODEL_INVALID or otherwise unexpected
// solver outcome.
func NewSolverInternalError(msg string) *Error {
	return &Error{Kind: SolverInternal, Msg: msg}
}

// NewOverflowError reports a scaled value exceeding representable range.
func NewOverflowError(msg string) *Error {
	return &Error{Kind: Overflow, Msg: msg}
}
