// Package core is the generation-and-integrity engine.
//
// It produces in-memory [RecordSet] values from resolved table descriptors
// and knows nothing about file formats, HTTP or terminals. Writers, the CLI
// and the web server consume its output.
//
// # Pipeline
//
// Every table in a call goes through the same stages, in order:
//
//  1. [Assembler] builds rows: schema fields via the [Synthesizer], then the
//     common [Envelope] (surrogate id, batch id and time, geo, audit columns).
//  2. [Injector] applies an [ErrorProfile]: null, duplicate, typo and
//     out-of-range passes. Touched rows get processing_status "warn".
//  3. [Versioner] optionally expands the rows into SCD2 history.
//  4. [Linker] binds foreign keys to the key pools of tables generated
//     earlier in the same call.
//  5. [Finalize] recomputes record hashes and per-row DQ percentages.
//
// [Profile] computes [DQMetrics] over any record set on demand.
//
// # Determinism
//
// A call draws from a single [Rand] seeded from the request (or
// [DefaultSeed]). Every primitive draw consumes exactly one value, and the
// stream is threaded sequentially through every table of a linked call, so
// identical requests against an engine with a fixed clock ([WithClock])
// produce identical record sets.
//
// # Background Jobs
//
// The engine is synchronous. [JobRunner] runs calls on goroutines bounded
// by a [JobLimiter] and lets callers poll or discard them.
//
// # Error Handling
//
// Failures are sentinel errors wrapped with context ([ErrEmptyParentPool],
// [ErrInvalidVersioningState], [ErrUnknownErrorProfile], ...). [MapError]
// turns them into coded user messages.
package core
