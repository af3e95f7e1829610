// Package frames stores tabular frame payloads in an embedded DuckDB
// database, separate from the SQLite catalog that tracks their metadata.
//
// A [Store] holds one frame per table. Frames enter through
// [Store.IngestCSV] and leave through [Store.ExportCSV]; in between the
// store offers the relational transforms the ETL operators are built on:
// repeatable sampling ([Store.Sample], [Store.ClusterSample]), deterministic
// train/test partitioning ([Store.Split]), group centering and aggregation
// ([Store.CenterBy], [Store.MeanBy]), co-rating pair expansion
// ([Store.PairsBy]), cosine weights ([Store.CosineBy]) and key joins
// ([Store.MergeBy]).
//
// Frame and column names are validated as plain identifiers before they are
// quoted into SQL; every value, path and seed is bound as a parameter.
package frames
