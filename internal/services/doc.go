// Package services implements the clients ytsubs uses to talk to the subscription manager backend.
//
// # Directory
//
// [Directory] is the narrow read/write surface the mutation queue and list view depend on:
// list a page of channels, resolve metadata for a new channel, and commit a batched delta.
// [APIService] implements it over HTTP, along with settings, download, login and health calls.
//
// Every authenticated request carries the session token in the x-access-token header.
// Requests can be throttled through a [rate.Limiter] set with [APIService.SetLimiter].
//
// # Events
//
// [EventStream] holds a websocket open to the backend and fans pushed events out to subscribers.
// [ChannelsUpdated] selects the broadcast sent after the channel list changes.
//
// # Error Handling
//
// Non-2xx responses are returned as [*APIError], which unwraps to shared sentinels:
//   - [shared.ErrAPIRequest] : any non-2xx response
//   - [shared.ErrNotAuthenticated] : 401 or 403
//   - [shared.ErrChannelNotFound] : 404
//   - [shared.ErrServiceUnavailable] : 503
//   - [shared.ErrTimeout] : request deadline exceeded
package services
