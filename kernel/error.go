// Package kernel provides the error type and low-level memory helpers shared
// by all kernel subsystems.
package kernel

// Error describes a kernel error. Kernel errors must be defined as global
// variables that are pointers to the Error structure. This requirement stems
// from the fact that the Go allocator is not available early at boot so we
// cannot use errors.New.
type Error struct {
	// The subsystem where the error occurred.
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
