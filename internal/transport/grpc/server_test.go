package grpc

import (
	"context"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/dagrunner/internal/observability"
)

func TestGetSnapshotMergesSnapshotterAndMetrics(t *testing.T) {
	snapshotter := SnapshotterFunc(func() (map[string]any, error) {
		return map[string]any{"free_nodes": float64(3)}, nil
	})

	metrics := observability.NewMetrics()
	metrics.NodesCompleted().Add(5)

	s := NewServer(WithSnapshotter(snapshotter), WithMetrics(metrics))

	resp, err := s.GetSnapshot(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	fields := resp.AsMap()
	if fields["free_nodes"] != float64(3) {
		t.Errorf("free_nodes = %v, want 3", fields["free_nodes"])
	}

	metricsSection, ok := fields["metrics"].(map[string]any)
	if !ok {
		t.Fatalf("expected metrics section to be a map, got %T", fields["metrics"])
	}
	if metricsSection["nodes_completed"] != float64(5) {
		t.Errorf("nodes_completed = %v, want 5", metricsSection["nodes_completed"])
	}
}

func TestGetSnapshotWithoutSourcesReturnsEmptyStruct(t *testing.T) {
	s := NewServer()

	resp, err := s.GetSnapshot(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(resp.AsMap()) != 0 {
		t.Errorf("expected an empty snapshot, got %v", resp.AsMap())
	}
}
