// Package operators implements the pipeline steps that move movie rating
// data from remote archives into analysis-ready frames.
//
// # Operator Interface
//
// Every step satisfies [Operator]: a name for logs and task records, and
// an Execute method that runs against an [Env] and reports a [Result].
// The pipeline threads Result.Frame into the next step's Env.Frame, so
// transform chains read naturally in a pipeline file: each stage consumes
// the frame the previous stage produced unless it names its own input.
//
// # Acquisition Operators
//
//  1. [Download] : Fetch a datasource artifact over HTTP
//     - Skips when the destination already exists unless forced
//     - Delegates to [services.Fetcher] for rate limits and auth
//
//  2. [Extract] : Unpack a zip or tar.gz archive
//     - Optional member list restricts what is extracted
//     - Entries that escape the destination directory are rejected
//
//  3. [Ingest] : Load a delimited file into the frame store
//
// # Transform Operators
//
// [Sample], [Split], [Center], [Aggregate], [Pairs], [Weights], and
// [Merge] wrap the corresponding frame store transforms. [Null] passes
// the incoming frame through untouched, which is useful as a pipeline
// placeholder.
//
// Sampling and splitting take a seed; a zero seed falls back to
// Env.Seed so a pipeline can pin one seed for every stage.
package operators
