package peertracker

import (
	"net"
	"sync"
)

// Conn is a connection accepted by Listener, carrying its caller.
type Conn struct {
	net.Conn
	Info AuthInfo

	releaseOnce sync.Once
	release     func()
}

// Close closes the connection and gives its slot back to the listener.
func (c *Conn) Close() error {
	err := c.Conn.Close()
	if c.release != nil {
		c.releaseOnce.Do(c.release)
	}
	return err
}
