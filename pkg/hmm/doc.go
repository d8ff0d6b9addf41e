// Package hmm provides hidden Markov models that plug into the
// forward-backward machinery through potential.Function.
//
// Two emission families are supported:
//
//   - Discrete: integer symbols in [0, Symbols()).
//   - Gaussian: real vectors with diagonal-covariance normal emissions.
//
// Models store log-probabilities internally and are immutable after
// construction; training (BaumWelch) returns a new model. A model can be
// shared by any number of goroutines.
//
// Constructors take linear-space probabilities and reject rows that are not
// stochastic within StochasticTolerance. Topology helpers (Ergodic,
// LeftToRight, UniformEmissions, RandomEmissions) produce valid starting
// parameters for training.
package hmm
