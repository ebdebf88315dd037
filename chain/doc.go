// Package chain implements the step-chain execution engine: named steps
// composed into an ordered pipeline where later steps reference the results
// of earlier ones through the run context.
//
// A Chain is built once (AddStep) and executed many times. Each execution
// creates a fresh Context; step arguments are bound by the Resolver, which
// substitutes "ref:<key>" expressions with values already in the Context.
// Execution entry points cover the four modes:
//
//	Run           one synchronous pass, final Context returned
//	RunAsync      same pass on a goroutine, promise-style result channel
//	RunStream     intermediate steps run to completion, final step streams
//	RunBatch      N independent sequential runs, results in input order
//	RunBatchAsync N independent concurrent runs, results in input order
//
// Failures are fail-fast within a run and isolated across batch runs. All
// chain errors are *Error values with a Type discriminator; see errors.go.
package chain
