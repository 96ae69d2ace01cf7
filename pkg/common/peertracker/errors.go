package peertracker

import "errors"

var (
	// ErrInvalidConnection is returned for connections that do not expose
	// the socket descriptor the kernel attached the peer credentials to.
	ErrInvalidConnection = errors.New("connection does not expose a socket descriptor")

	// ErrUnsupportedTransport is returned when an accepted connection is not
	// a unix domain socket.
	ErrUnsupportedTransport = errors.New("peer credentials require a unix domain socket")
)
