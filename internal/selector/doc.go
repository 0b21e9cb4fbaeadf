// Package selector chooses cut points from a beat grid.
//
// Select runs a single forward greedy pass: from a cursor t it opens the
// window [t+PeriodMin, t+PeriodMax], picks the beat nearest t+TargetPeriod,
// enforces MinCutGap against the previous cut, and moves the cursor to the
// chosen beat. Empty windows either widen by Grace (strict) or fall back to
// the globally nearest beat (non-strict).
//
// The pass is written as a state machine (scanning, selected, terminated)
// with an explicit step budget so termination does not depend on the
// cursor-advance details of any one branch.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package selector
