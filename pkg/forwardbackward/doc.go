// Package forwardbackward implements the forward, backward and Viterbi
// recurrences over any potential.Function.
//
// What:
//
//   - Forward / Backward / BackwardFrom: probability-space recurrences with
//     per-step scaling. Row t of the forward table sums to 1 after scaling,
//     and the sequence log-likelihood is the sum of the log scaling
//     constants.
//   - ForwardUnscaled / BackwardUnscaled: the textbook recurrences without
//     scaling. They underflow on long sequences and exist mostly as a
//     reference for the scaled variants.
//   - LogForward / LogBackward: the same recurrences in log space, combined
//     with log-sum-exp. No scaling is needed.
//   - Posteriors / LogPosteriors / ExpectedTransitions: state and transition
//     posteriors built from a forward/backward pair.
//   - Viterbi: the single most likely state path.
//
// Scaling convention (Rabiner):
//
//	c[t]      = Σ_j α̃[t][j]              (α̃ is the row before scaling)
//	α̂[t][j]   = α̃[t][j] / c[t]
//	β̂[T-1][i] = 1
//	β̂[t][i]   = Σ_j exp(φ(i, j, t+1)) · β̂[t+1][j] / c[t+1]
//
// With this convention α̂[t][i]·β̂[t][i] is the posterior of state i at t and
// the unscaled α[t][j] equals α̂[t][j]·Π_{k≤t} c[k]. The constants are kept
// as log c[t]; row sums are taken after shifting by the largest log term.
//
// Complexity: O(T·S²) time, O(T·S) memory for every recurrence.
//
// Every call allocates its own tables; nothing is shared between calls, so
// independent sequences can be evaluated concurrently against the same
// potential function.
package forwardbackward
