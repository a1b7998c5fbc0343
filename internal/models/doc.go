// Package models defines domain entities and persistence interfaces for ytsubs.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the subscription manager's JSON payloads
//   - [Channel] : a tracked channel, identified by its canonical URL
//   - [ChannelPage] : one page of the remote channel list
//   - [ChannelInfo] : metadata resolved by the backend for a prospective channel
//   - [ChannelDelta] : the batched add/remove commit body
//   - [ChannelSettings] : per-channel download settings
//
// 2. Persistent Entities: SQLite-backed records with IDs, timestamps and soft deletes
//   - [Commit] : journal entry for a successful batched commit
//   - [CachedChannel] : last known copy of a channel row
//
// All persistent entities implement the Model interface. The Repository[T] interface defines standard CRUD operations for database access.
package models
