// Package services defines the [Fetcher] interface for retrieving remote
// datasource artifacts and implements it over HTTP.
//
// # Fetcher Interface
//
// Operators download through a common abstraction so pipelines work the
// same against public mirrors, authenticated APIs and test doubles.
//
// # HTTP Implementation
//
// [HTTPFetcher] performs context-aware GETs straight to disk. Every request
// first waits on a shared [rate.Limiter], so a pipeline fanning out over
// many artifacts stays inside a mirror's request budget.
//
// Two authentication shapes cover the catalog's datasources:
//   - OAuth2 client credentials ([FetcherConfig.Auth]): the underlying
//     client exchanges and refreshes tokens automatically.
//   - Captured browser headers ([FetcherConfig.Headers]): cookie-gated
//     hosts accept a session exported with "copy as cURL"; the parsed
//     header set is replayed on each request.
//
// # Error Handling
//
// Failures wrap typed errors from the shared package:
//   - [shared.ErrDownloadFailed] : non-success HTTP status
//   - [shared.ErrTimeout] : deadline exceeded while waiting or reading
package services
