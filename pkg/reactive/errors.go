package reactive

import (
	jerrors "github.com/j20-dev/j20/internal/errors"
)

// Sentinel errors. Errors returned or raised by the runtime match these with
// errors.Is, even when they carry extra detail.
var (
	// ErrDisposed is raised when a disposed derived value is read.
	ErrDisposed = jerrors.New(jerrors.CodeDisposed)

	// ErrCircular is raised when a derived value reads itself, directly or
	// through other derived values.
	ErrCircular = jerrors.New(jerrors.CodeCircular)

	// ErrBudgetExceeded is reported when a flush hits MaxEffectRunsPerFlush.
	ErrBudgetExceeded = jerrors.New(jerrors.CodeBudgetExceeded)

	// ErrEffectPanic wraps a panic raised by an effect body.
	ErrEffectPanic = jerrors.New(jerrors.CodeEffectPanic)

	// ErrCleanupPanic wraps a panic raised by an effect cleanup.
	ErrCleanupPanic = jerrors.New(jerrors.CodeCleanupPanic)

	// ErrOwnerHookPanic wraps a panic raised by an owner cleanup hook.
	ErrOwnerHookPanic = jerrors.New(jerrors.CodeOwnerHookPanic)
)

// errorFromPanic normalizes a recovered value into a coded error.
func errorFromPanic(code string, r any) *jerrors.Error {
	return jerrors.FromPanic(code, r)
}
