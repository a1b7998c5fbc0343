// Package tasks reconciles channel subscription changes against the backend with real-time progress reporting.
//
// # Mutation Queue
//
// [MutationQueue] holds pending additions and deletion markers, keyed by canonical channel URL:
//
//  1. [MutationQueue.AddChannel] : normalize, check the directory, resolve info, queue
//     - a URL already pending fails without a request
//     - a URL marked for deletion is restored without a request
//  2. [MutationQueue.QueueForDeletion] : drop a pending addition or mark a committed channel
//  3. [MutationQueue.UndoChanges] : clear everything and refresh once
//  4. [MutationQueue.SaveChanges] : one batched write, then refresh
//
// Queue operations answer with [models.OperationResult] and never return errors.
//
// # Channel List
//
// [ChannelList] is the read side. Each fetch is tagged with a generation number so a slow response
// for an old filter never replaces a newer one.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # Persistence Hooks
//
// The optional [CommitRecorder] journals accepted commits and [ChannelCacher] keeps the last seen copy of each channel.
// Both are best effort; their errors are logged and never fail the operation.
//
// # Implementation
//
// [ChannelEngine] builds queues and lists over:
//   - [services.Directory] : the backend REST client
//   - [CommitRecorder] : optional commit journal (repositories.CommitLog)
//   - [ChannelCacher] : optional channel cache (repositories.ChannelCache)
package tasks
