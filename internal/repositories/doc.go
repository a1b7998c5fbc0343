// Package repositories implements SQLite persistence for the commit journal and the channel cache.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [CommitRepository] : journal of batched channel commits accepted by the backend
//   - [ChannelCacheRepository] : last known copy of each channel, keyed by canonical URL
//
// [CommitLog] and [ChannelCache] adapt these to the tasks.CommitRecorder and tasks.ChannelCacher hooks.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
