// Package types defines the small shared vocabulary of assockit: typed errors
// with stable categories, registry value types, and registry watch events.
//
// Design goals:
//   - Typed errors so callers branch on Kind rather than message text.
//   - No dependencies beyond the standard library, so every other package
//     (including the registry backends) can import it.
package types
