// Package peertracker identifies the callers of the agent APIs. It does so by
// implementing the `net.Listener` interface and the gRPC credential
// interface: every accepted UNIX domain socket connection carries the
// credentials the kernel recorded for its peer, and dependent gRPC and HTTP
// handlers can extract them from their request context.
//
// Connections whose credentials cannot be read are dropped at accept time,
// so handlers never see an anonymous caller.
//
// The pid of a caller is only a hint. The process may have exited and its pid
// may have been reused by the time a handler looks at it.
package peertracker
