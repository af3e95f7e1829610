// Package pipeline loads ETL pipelines from TOML files and runs them
// against the catalog with per-stage profiling.
//
// # Pipeline Files
//
// A pipeline file names the run and lists its stages in order. Each
// [[stage]] table picks an operator and carries that operator's own
// settings; an optional [stage.output] table registers the stage's
// produced frame as a catalog dataset:
//
//	name = "etl-ml-small"
//	description = "MovieLens sample ETL"
//	mode = "dev"
//	seed = 55
//
//	[[stage]]
//	name = "acquire"
//	operator = "download"
//	url = "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip"
//	destination = "raw/ml-latest-small.zip"
//
//	[[stage]]
//	name = "load"
//	operator = "ingest"
//	path = "staged/ml-latest-small/ratings.csv"
//	table = "ratings"
//
//	  [stage.output]
//	  name = "ratings"
//	  stage = "raw"
//
// [Load] resolves each stage to an [operators.Operator] and rejects
// unknown operator names and missing required settings.
//
// # Running
//
// [Runner.Run] records the run in the catalog: a job moves from created
// to running, every stage becomes a task with a resource profile
// (duration, cpu, rss, io deltas), and stage outputs become dataset and
// dataframe entries. Catalog writes happen inside unit of work scopes,
// so a failed stage leaves no partial records; the failure itself is
// recorded in a fresh scope and the job ends failed.
//
// Progress updates stream over an optional channel with non-blocking
// sends, mirroring how long operations report elsewhere in this module.
package pipeline
