// Package operations runs the recommendation pipeline as a sequence of
// registered steps sharing one OperationState.
//
// Core Components:
//
// Manager: orchestrates execution. Steps run sequentially in dependency
// order; the first failing step fails the operation and every remaining
// step is marked skipped. Steps are never retried.
//
// Step: a single unit of work. The pipeline registers three: load, enrich
// and recommend.
//
// Registry: registration and dependency ordering of steps.
//
// OperationState: runtime state of the operation and of each step. Steps
// exchange data through its context map (merged_table, enriched_table,
// recommendation).
//
// Example usage:
//
//	manager := operations.NewManager(registry, operations.NewConfig(), tracer, logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{
//		ConstituentsFile: "nasdaq100.csv",
//		PriceChangeFile:  "nasdaq100_price_change.csv",
//	})
package operations
