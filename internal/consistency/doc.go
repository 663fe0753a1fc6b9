// Package consistency tracks per-key vector clocks for causal-consistency
// checks and resolves conflicting concurrent writes with last-write-wins
// semantics.
package consistency
