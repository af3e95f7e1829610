// Package repositories implements the data access layer for the rsx catalog.
//
// Each entity is persisted through three cooperating pieces:
//
//  1. A [StatementSet] declaring the parameterized SQL for the entity's
//     table. Repositories never assemble SQL text themselves; every
//     statement a repository runs comes from its set.
//  2. A [Repo] carrying the generic CRUD cycle: Add inserts when the entity
//     has no id yet and updates otherwise, Get/GetAll/Exists/Remove read and
//     delete by id. Typed repositories such as [DatasetRepository] wrap the
//     base and add scoped lookups and aggregate loading.
//  3. A [Registry] mapping logical names ("dataset", "job", ...) to
//     repository instances, looked up through [UnitOfWork.Repo].
//
// The [UnitOfWork] brackets one logical transaction over the shared catalog
// connection. [UnitOfWork.Run] begins the transaction, hands the scope to a
// closure and commits when the closure returns nil. A returned error, a
// panic or an explicit [UnitOfWork.Rollback] reverts every buffered write.
// Exactly one terminal action happens on every exit path; a unit of work is
// single use.
//
// Failures surface through the package's error types: [NotFoundError],
// [DuplicateKeyError], [UnknownRepositoryError], [TransactionStateError]
// and [ConnectionError].
package repositories
