// Package grpc exposes a read-only introspection RPC over whatever a
// dag.Executor run is doing: its graph snapshot, its metrics, or any
// other diagnostic data a caller wants to publish.
//
// There is no .proto file behind this service. A generated client stub
// would need protoc to exist safely, and nothing downstream of pkg/dag
// needs strongly-typed request/response messages — the payload is
// already a free-form snapshot, which google.protobuf.Struct models
// directly. The grpc.ServiceDesc below is hand-built the way
// protoc-gen-go-grpc would build one, wired against structpb.Struct
// instead of a generated message type.
package grpc

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/dagrunner/internal/observability"
)

// Snapshotter produces the introspection data a GetSnapshot call
// returns.
type Snapshotter interface {
	Snapshot() (map[string]any, error)
}

// SnapshotterFunc adapts a plain function to Snapshotter.
type SnapshotterFunc func() (map[string]any, error)

// Snapshot implements Snapshotter.
func (f SnapshotterFunc) Snapshot() (map[string]any, error) { return f() }

// Server exposes SnapshotService.GetSnapshot over gRPC.
type Server struct {
	snapshotter Snapshotter
	metrics     *observability.Metrics
	grpcServer  *grpc.Server
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithSnapshotter sets the introspection data source. Without one,
// GetSnapshot returns only the metrics section, if any.
func WithSnapshotter(s Snapshotter) ServerOption {
	return func(srv *Server) { srv.snapshotter = s }
}

// WithMetrics attaches a metrics sink; its snapshot is merged into
// every GetSnapshot response under the "metrics" key.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(srv *Server) { srv.metrics = m }
}

// NewServer builds a Server and registers it against a fresh
// grpc.Server, with logging/recovery interceptors and reflection for
// grpcurl and similar tools.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(),
			RecoveryInterceptor(),
		),
	)
	s.grpcServer.RegisterService(&snapshotServiceDesc, s)
	reflection.Register(s.grpcServer)

	return s
}

// Serve starts the gRPC server on addr and blocks until it stops.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Printf("snapshot server listening on %s", addr)
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully stops the server, waiting for in-flight
// calls.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// GetSnapshot implements snapshotServiceServer. The request is
// currently unused — it exists so the RPC has the request/response
// shape a future filtered-snapshot parameter can grow into without a
// wire-compatibility break.
func (s *Server) GetSnapshot(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	data := map[string]any{}

	if s.snapshotter != nil {
		snap, err := s.snapshotter.Snapshot()
		if err != nil {
			return nil, status.Errorf(codes.Internal, "snapshot: %v", err)
		}
		for k, v := range snap {
			data[k] = v
		}
	}

	if s.metrics != nil {
		data["metrics"] = metricsSnapshotToMap(s.metrics.Snapshot())
	}

	out, err := structpb.NewStruct(data)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	return out, nil
}

func metricsSnapshotToMap(snap *observability.MetricsSnapshot) map[string]any {
	return map[string]any{
		"dispatch_cycle_duration_ms":  snap.DispatchCycleDuration.Mean.Seconds() * 1000,
		"completion_wait_duration_ms": snap.CompletionWaitDuration.Mean.Seconds() * 1000,
		"pool_utilization":            snap.PoolUtilization,
		"nodes_submitted":             float64(snap.NodesSubmitted),
		"nodes_completed":             float64(snap.NodesCompleted),
		"nodes_failed":                float64(snap.NodesFailed),
	}
}

// LoggingInterceptor returns a gRPC interceptor that logs requests and
// their duration.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		log.Printf("gRPC call: %s duration=%v", info.FullMethod, duration)
		if err != nil {
			log.Printf("gRPC error: %s: %v", info.FullMethod, err)
		}
		return resp, err
	}
}

// RecoveryInterceptor returns a gRPC interceptor that recovers from
// panics and reports them as an internal error.
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("gRPC panic recovered: %s: %v", info.FullMethod, r)
				err = status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// snapshotServiceServer is the interface Server implements; it mirrors
// what protoc-gen-go-grpc would generate for a one-method service.
type snapshotServiceServer interface {
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func snapshotServiceGetSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(snapshotServiceServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/dagrunner.v1.SnapshotService/GetSnapshot",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(snapshotServiceServer).GetSnapshot(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var snapshotServiceDesc = grpc.ServiceDesc{
	ServiceName: "dagrunner.v1.SnapshotService",
	HandlerType: (*snapshotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSnapshot",
			Handler:    snapshotServiceGetSnapshotHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dagrunner/v1/snapshot.proto",
}
