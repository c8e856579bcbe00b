// Command healthprobe checks the service's gRPC health endpoint. It exits
// non-zero unless the service reports SERVING.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "voice-outbound-service/internal/api/grpc"
)

func probe(ctx context.Context, conn grpc.ClientConnInterface, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func main() {
	addr := flag.String("server", "localhost:50051", "gRPC server address")
	service := flag.String("service", grpcapi.ServiceName, "service to check; empty checks the whole server")
	timeout := flag.Duration("timeout", 5*time.Second, "probe timeout")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status, err := probe(ctx, conn, *service)
	if err != nil {
		log.Printf("health check failed: %v", err)
		os.Exit(1)
	}

	log.Printf("%s: %s", *addr, status)
	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
