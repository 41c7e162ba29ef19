// Package types defines the typed errors and limits shared by the board
// engine, its interface layer and the boardctl CLI.
//
// Errors carry a stable ErrKind so callers branch on intent rather than on
// message text:
//
//	if errors.Is(err, types.ErrOutOfRange) {
//	    // coordinate has not been grown into yet
//	}
//
// This package has no dependencies beyond the standard library.
package types
