// Package server provides HTTP routing, middleware, and the local JSON control API for a channel mutation queue.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Several methods can be registered on one path;
// other methods get 405 with an Allow header.
//
// # Queue Handler
//
// [QueueHandler] binds one tasks.MutationQueue and its tasks.ChannelList to HTTP so scripts and other tools
// can drive the same pending state the CLI would. It lives for the lifetime of `ytsubs serve`; the queue is
// never persisted.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
