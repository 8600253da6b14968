// Package errors defines the engine's error taxonomy (spec §7): a closed
// set of error kinds the executor classifies every failure into, plus the
// structured ClassifiedError envelope surfaced to the host.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for one of the error kinds in spec §7.
type Code string

const (
	CodeInvalidParts       Code = "invalid-parts-definition"
	CodeSourceFetch        Code = "source-fetch-failure"
	CodePackageBackend     Code = "package-backend-failure"
	CodePluginValidation   Code = "plugin-validation-failure"
	CodeBuildScript        Code = "build-script-failure"
	CodeOverlay            Code = "overlay-failure"
	CodeFileCollision      Code = "file-collision"
	CodePermission         Code = "permission-rule-failure"
	CodeScriptletProtocol  Code = "scriptlet-protocol-failure"
	CodeStateIO            Code = "state-io-failure"
	CodeCancellation       Code = "cancellation"
)

// EngineError is the marker interface every taxonomy error implements, so
// callers can use errors.As to recover kind-specific detail without a type
// switch over concrete types.
type EngineError interface {
	error
	Code() Code
	EngineError()
}

// InvalidPartsError indicates a schema or dependency-graph problem in the
// parts document.
type InvalidPartsError struct {
	Part    string
	Field   string
	Message string
}

func (e *InvalidPartsError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("invalid parts definition: %s", e.Message)
	}
	return fmt.Sprintf("invalid parts definition: part %q: %s", e.Part, e.Message)
}
func (e *InvalidPartsError) Code() Code { return CodeInvalidParts }
func (e *InvalidPartsError) EngineError() {}

// SourceFetchError indicates a source handler failed to populate a part's
// source tree.
type SourceFetchError struct {
	Part string
	Err  error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("part %q: source fetch failed: %v", e.Part, e.Err)
}
func (e *SourceFetchError) Unwrap() error { return e.Err }
func (e *SourceFetchError) Code() Code    { return CodeSourceFetch }
func (e *SourceFetchError) EngineError()  {}

// PackageBackendError indicates a system package or snap operation failed.
type PackageBackendError struct {
	Part    string
	Package string
	Err     error
}

func (e *PackageBackendError) Error() string {
	return fmt.Sprintf("part %q: package backend failed for %q: %v", e.Part, e.Package, e.Err)
}
func (e *PackageBackendError) Unwrap() error { return e.Err }
func (e *PackageBackendError) Code() Code    { return CodePackageBackend }
func (e *PackageBackendError) EngineError()  {}

// PluginValidationError indicates a plugin's toolchain requirements are not
// met by the host.
type PluginValidationError struct {
	Part   string
	Plugin string
	Reason string
	DocURL string
}

func (e *PluginValidationError) Error() string {
	msg := fmt.Sprintf("part %q: plugin %q validation failed: %s", e.Part, e.Plugin, e.Reason)
	if e.DocURL != "" {
		msg += " (see " + e.DocURL + ")"
	}
	return msg
}
func (e *PluginValidationError) Code() Code { return CodePluginValidation }
func (e *PluginValidationError) EngineError() {}

// BuildScriptError indicates a scriptlet or plugin-emitted command exited
// non-zero.
type BuildScriptError struct {
	Part       string
	Step       string
	ExitCode   int
	StdoutTail string
	StderrTail string
}

func (e *BuildScriptError) Error() string {
	return fmt.Sprintf("part %q: %s script failed with exit code %d", e.Part, e.Step, e.ExitCode)
}
func (e *BuildScriptError) Code() Code { return CodeBuildScript }
func (e *BuildScriptError) EngineError() {}

// OverlayError indicates a mount, layer-integrity or in-chroot package
// failure during the OVERLAY step.
type OverlayError struct {
	Part    string
	Reason  string
	Err     error
}

func (e *OverlayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("part %q: overlay failed: %s: %v", e.Part, e.Reason, e.Err)
	}
	return fmt.Sprintf("part %q: overlay failed: %s", e.Part, e.Reason)
}
func (e *OverlayError) Unwrap() error { return e.Err }
func (e *OverlayError) Code() Code    { return CodeOverlay }
func (e *OverlayError) EngineError()  {}

// FileCollisionError indicates two parts contribute conflicting files to a
// shared stage/prime area.
type FileCollisionError struct {
	Path      string
	PartA     string
	PartB     string
	Reason    string
}

func (e *FileCollisionError) Error() string {
	return fmt.Sprintf("file collision at %q between part %q and part %q: %s", e.Path, e.PartA, e.PartB, e.Reason)
}
func (e *FileCollisionError) Code() Code { return CodeFileCollision }
func (e *FileCollisionError) EngineError() {}

// PermissionError indicates a permissions rule could not be applied.
type PermissionError struct {
	Part string
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("part %q: failed to apply permissions to %q: %v", e.Part, e.Path, e.Err)
}
func (e *PermissionError) Unwrap() error { return e.Err }
func (e *PermissionError) Code() Code    { return CodePermission }
func (e *PermissionError) EngineError()  {}

// ScriptletProtocolError indicates a malformed or disallowed craftctl
// command from a running scriptlet.
type ScriptletProtocolError struct {
	Part    string
	Command string
	Reason  string
}

func (e *ScriptletProtocolError) Error() string {
	return fmt.Sprintf("part %q: scriptlet protocol error on %q: %s", e.Part, e.Command, e.Reason)
}
func (e *ScriptletProtocolError) Code() Code { return CodeScriptletProtocol }
func (e *ScriptletProtocolError) EngineError() {}

// StateIOError indicates a state file could not be read or written.
type StateIOError struct {
	Part string
	Step string
	Err  error
}

func (e *StateIOError) Error() string {
	return fmt.Sprintf("part %q: state I/O failed for step %s: %v", e.Part, e.Step, e.Err)
}
func (e *StateIOError) Unwrap() error { return e.Err }
func (e *StateIOError) Code() Code    { return CodeStateIO }
func (e *StateIOError) EngineError()  {}

// CancellationError indicates the run was cancelled.
type CancellationError struct {
	Part string
	Step string
}

func (e *CancellationError) Error() string {
	if e.Part == "" {
		return "run cancelled"
	}
	return fmt.Sprintf("part %q: cancelled during %s", e.Part, e.Step)
}
func (e *CancellationError) Code() Code { return CodeCancellation }
func (e *CancellationError) EngineError() {}

// ClassifiedError is the structured error the executor surfaces to the
// host: it carries the part, step, captured output excerpts, and the
// stable code of the wrapped EngineError.
type ClassifiedError struct {
	Part       string
	Step       string
	StdoutTail string
	StderrTail string
	Err        EngineError
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Err.Code(), e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify wraps an EngineError with part/step context and output
// excerpts, producing the structured error the executor returns to the
// host for a failed action.
func Classify(part, step string, stdoutTail, stderrTail string, err EngineError) *ClassifiedError {
	return &ClassifiedError{
		Part:       part,
		Step:       step,
		StdoutTail: stdoutTail,
		StderrTail: stderrTail,
		Err:        err,
	}
}

// As is a thin re-export of errors.As for callers that only import this
// package.
func As(err error, target interface{}) bool { return errors.As(err, target) }
