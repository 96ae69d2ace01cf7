package peertracker

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
)

// callerCredentials hands the CallerInfo that Listener attached to each
// accepted connection to gRPC as the connection's AuthInfo.
type callerCredentials struct {
	serverName string
}

// NewCredentials returns server side gRPC transport credentials for
// connections accepted by Listener. Like grpc's local credentials the
// connections report PrivacyAndIntegrity since a unix socket never leaves the
// host.
func NewCredentials() credentials.TransportCredentials {
	return &callerCredentials{serverName: "peercred-agent"}
}

func (c *callerCredentials) ClientHandshake(_ context.Context, _ string, conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	conn.Close()
	return nil, nil, fmt.Errorf("%w: caller credentials are server side only", ErrInvalidConnection)
}

func (c *callerCredentials) ServerHandshake(conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	tracked, ok := conn.(*Conn)
	if !ok {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %T was not accepted by a peer tracking listener", ErrInvalidConnection, conn)
	}

	info := tracked.Info
	info.CommonAuthInfo = credentials.CommonAuthInfo{SecurityLevel: credentials.PrivacyAndIntegrity}
	return tracked, info, nil
}

func (c *callerCredentials) Info() credentials.ProtocolInfo {
	return credentials.ProtocolInfo{
		SecurityProtocol: authType,
		ServerName:       c.serverName,
	}
}

func (c *callerCredentials) Clone() credentials.TransportCredentials {
	clone := *c
	return &clone
}

func (c *callerCredentials) OverrideServerName(name string) error {
	c.serverName = name
	return nil
}

// CallerFromContext returns the caller of the gRPC request in ctx.
func CallerFromContext(ctx context.Context) (CallerInfo, bool) {
	ai, ok := AuthInfoFromContext(ctx)
	return ai.Caller, ok
}

func AuthInfoFromContext(ctx context.Context) (AuthInfo, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return AuthInfo{}, false
	}
	ai, ok := p.AuthInfo.(AuthInfo)
	return ai, ok
}
