// Package ucx is a thin asynchronous tagged-messaging layer for moving data
// between ranks of a distributed computation. The transport runtime is bound
// at process start by resolving its entry points dynamically (see Bind);
// sends and receives produce pollable Requests whose completion is driven
// explicitly through Channel.Progress. Endpoint and Worker handles are
// supplied by an external topology layer and carried through opaquely.
//
// All interaction with one worker (issue, progress, release) must stay on a
// single thread. The transport invokes completion callbacks synchronously
// inside Progress; this package owns no threads and adds no locking around
// per-worker state.
package ucx
