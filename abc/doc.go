// Package abc implements the threshold scheduling and acceptance layer of an
// ABC-SMC (Approximate Bayesian Computation — Sequential Monte Carlo) run.
//
// # Reading Guide
//
// Start with these three files to understand the policy layer:
//   - epsilon.go: the Epsilon schedule contract and its variants (none,
//     constant, list, quantile, median)
//   - temperature.go: the Temperature schedule that generalizes epsilon to an
//     annealing parameter for stochastic acceptance
//   - acceptor.go: the per-particle accept/reject decision (current-time,
//     complete-history, stochastic)
//
// # Architecture
//
// Once per generation, the surrounding sampler calls Initialize (generation 0)
// or Update (later generations) on its Epsilon schedule. The schedule may pull
// the previous generation's weighted distances or the historical particle
// records through deferred accessors (population.go), computes the threshold
// or temperature, and freezes it in an append-only per-generation store
// (schedule.go). Particle evaluation then fans out concurrently, each worker
// calling an Acceptor against the same frozen value.
//
// Annealing temperatures are proposed by a set of pure Schemes (scheme.go) and
// combined conservatively: minimum finite candidate, never below 1, never
// above the previous generation's temperature. The last generation is always
// forced to temperature 1 so the final population samples the un-annealed
// target.
//
// Particle simulation, distance definitions, prior sampling, and population
// persistence are external collaborators; they consume this package purely
// through DistanceFunc, ThresholdFunc, and the Epsilon/Acceptor interfaces.
package abc
