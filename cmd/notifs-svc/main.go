package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"nirala/internal/common"
	"nirala/internal/notif"
	"nirala/internal/wire"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := common.ValidateRegistry(); err != nil {
		log.Fatalf("Invalid notification registry: %v", err)
	}
	if err := notif.ValidateTemplates(); err != nil {
		log.Fatalf("Invalid notification templates: %v", err)
	}

	svc, err := wire.InitializeNotificationService()
	if err != nil {
		log.Fatalf("Failed to initialize notification service: %v", err)
	}
	logger := svc.Log

	if svc.Config.Notification.DigestEnabled {
		if err := svc.Digest.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start digest scheduler")
		}
	}

	grpcServer := newGRPCServer(svc)

	lis, err := net.Listen("tcp", svc.Config.GRPCAddr())
	if err != nil {
		logger.Fatal().Err(err).Str("addr", svc.Config.GRPCAddr()).Msg("failed to listen")
	}

	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("notification router listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down notification router...")
	grpcServer.GracefulStop()
	svc.Digest.Stop()
	svc.Router.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(svc.Config.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	svc.Close(ctx)
	logger.Info().Msg("notification router stopped")
}

// newGRPCServer registers the router, the standard health service and
// reflection for grpcurl.
func newGRPCServer(svc *wire.NotificationService) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(common.AuthInterceptor(svc.Validator)))
	notif.RegisterNotificationRouterServer(grpcServer, svc.GRPC)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)
	return grpcServer
}
