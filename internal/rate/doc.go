// Package rate provides the two in-memory window primitives the abuse-control
// limiters are built from.
//
// # Window semantics
//
//   - [SlidingLog] keeps every attempt timestamp per key and counts only the
//     ones inside the trailing window. Entries expire when now-t > window.
//   - [ResetWindow] keeps a single {count, firstTime} pair per key and discards
//     it wholesale once now-firstTime > window. Nothing decays in between.
//
// Both trip at count >= limit. They are deliberately separate types: their
// boundary behavior differs and both are observable through the API.
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the chatauth module.
package rate
