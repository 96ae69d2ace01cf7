package util

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCDialContext connects to a local agent API. The peer is authenticated by
// the kernel through the UNIX socket, so no transport security is used.
func GRPCDialContext(ctx context.Context, target string, extraOpts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, extraOpts...)
	return grpc.DialContext(ctx, target, opts...) //nolint:staticcheck // blocking dial is wanted for healthchecks
}
