// Package scimix models target profiles against a set of source profiles,
// for use in backend services and command-line analysis.
//
// A profile is a named vector of D ≥ 2 finite components, such as allele
// frequencies summarised along principal axes. scimix answers three questions
// about a target profile:
//
//   - Which sources are closest? (package distance)
//   - Which convex mixture of sources reproduces it best? (package mixture)
//   - How do sources and targets cluster together? (package sklearn/mixture)
//
// # Features
//
// - Distance ranking: Euclidean or cosine, optional grouping by name prefix
// - Mixture modelling: slot-based local search with non-negative weights summing to one
// - Permutation importance: marginal contribution of every used source
// - Gaussian mixtures: MAP EM with conjugate priors, diag or full covariance, AIC/BIC selection
// - Cancellation: a newer job supersedes the running one at the next checkpoint
// - Structured logging (zerolog), stack-carrying errors (cockroachdb/errors), Prometheus metrics
//
// # Installation
//
//	go get github.com/YuminosukeSato/scimix
//
// # Quick Start
//
// Estimating a target as a mixture of two sources:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scimix/core/model"
//	    "github.com/YuminosukeSato/scimix/mixture"
//	)
//
//	func main() {
//	    ds, err := model.NewDataset(
//	        []model.Row{
//	            {Name: "Pop:A", Vector: []float64{0, 0}},
//	            {Name: "Pop:B", Vector: []float64{10, 10}},
//	        },
//	        []model.Row{{Name: "Sample", Vector: []float64{5, 5}}},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    solver := mixture.NewSolver(mixture.WithSlots(1000), mixture.WithRandomState(42))
//	    sol, err := solver.Solve(context.Background(), nil, ds.Target()[0], ds.Source())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("weights:", sol.Weights, "distance:", sol.Distance)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - core/model: Rows, datasets, aggregation keys, job tracking and checkpoints
//   - core/linalg: Vector distances, Gauss-Jordan inversion, pooled statistics
//   - core/parallel: Parallel processing utilities
//   - distance: Distance ranking
//   - mixture: Mixture solver, permutation importance, batch solves
//   - sklearn/mixture: Bayesian Gaussian mixture and model selection
//   - sklearn/cluster: k-means++ seeding and mini-batch k-means
//   - preprocessing: Feature scaling
//   - metrics: Profile fit metrics and information criteria
//   - ingest: CSV tables of named profiles
//   - config: YAML configuration and presets
//   - pkg/errors, pkg/log, pkg/telemetry: Errors, logging and metrics
//
// The scimix command (cmd/scimix) exposes the engines on CSV files.
//
// # Cancellation
//
// Long-running calls take a context.Context. Contexts issued by
// model.JobTracker are cancelled when a newer job starts; the running call
// then returns nil and an error for which model.IsSuperseded reports true.
//
// # License
//
// scimix is released under the MIT License.
package scimix
