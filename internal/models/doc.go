// Package models defines the domain entities persisted by the rsx catalog.
//
// Every persistent entity embeds [Base] and implements the [Entity]
// interface:
//   - [Dataset] : A named collection of dataframes produced at a pipeline stage
//   - [DataFrame] : Tabular data belonging to a dataset, backed by a frame store table
//   - [DataSource] : An external publisher of raw data (website, download URL)
//   - [File] : A file on disk tracked through download and extraction
//   - [Job] : One pipeline run with its ordered tasks
//   - [Task] : A single operator execution within a job
//   - [Profile] : Resource measurements captured while a task ran
//
// Identifiers follow a two-tier scheme. The numeric id is assigned exactly
// once by the persistence layer when an entity is first inserted; assigning a
// different id afterwards fails with [ErrIDReassigned] and leaves the original
// untouched. The oid is a UUID generated at construction time and never
// changes.
//
// [Mode], [Stage] and [State] are the closed vocabularies used across the
// catalog: environments (dev, test, prod), data maturity (raw, interim,
// cooked) and job lifecycle (created, running, completed, failed).
package models
