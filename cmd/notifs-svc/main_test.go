package main

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/notif"
	"nirala/internal/wire"
)

func dialServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "notifs-svc-test"
	svc := &wire.NotificationService{
		Config:    cfg,
		Validator: common.NewTokenValidator(cfg),
		GRPC:      notif.NewGRPCHandler(nil),
	}

	lis := bufconn.Listen(1 << 20)
	server := newGRPCServer(svc)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHealthCheckIsPublic(t *testing.T) {
	conn := dialServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRouterRequiresToken(t *testing.T) {
	conn := dialServer(t)

	req, err := structpb.NewStruct(map[string]interface{}{"userId": "user-1"})
	require.NoError(t, err)

	_, err = notif.NewNotificationRouterClient(conn).UnreadCount(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
