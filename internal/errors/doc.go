// Package errors provides the coded, structured errors used across j20.
//
// Every error condition the reactive core can surface has a registered code:
//   - R0xx: reactive graph (disposed access, circular dependency, effect failures)
//   - L0xx: keyed list reconciliation advisories
//   - S0xx: task scheduler
//   - P0xx: component props
//   - C0xx: configuration
//   - X0xx: command line input
//
// Errors compare by code, so a sentinel created with New matches any error
// carrying the same code:
//
//	err := errors.New(errors.CodeCircular).WithDetail("total -> subtotal -> total")
//	stderrors.Is(err, reactive.ErrCircular) // true
//
// Format renders an error for terminal display; FormatCompact and FormatJSON
// are intended for logs.
package errors
