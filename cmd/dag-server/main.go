// Command dag-server runs a standalone snapshot server: it executes
// the edge-list graph given by -file once, in the background, and
// exposes its progress and final metrics over gRPC until the run
// completes and the server is told to stop.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/example/dagrunner/internal/observability"
	"github.com/example/dagrunner/internal/rundb"
	transportgrpc "github.com/example/dagrunner/internal/transport/grpc"
	"github.com/example/dagrunner/pkg/dag"
)

var (
	listenAddr  = flag.String("listen", ":50051", "address to listen on")
	graphPath   = flag.String("file", "", "path to the edge-list file")
	poolWidth   = flag.Int("pool-width", 5, "number of workers to run concurrently")
	pollTimeout = flag.Duration("poll-timeout", 5*time.Second, "completion poll timeout")
	historyDB   = flag.String("history", "", "path to a SQLite run-history database (disabled if empty)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *graphPath == "" {
		log.Fatal("dag-server: -file is required")
	}

	g, err := loadGraph(*graphPath)
	if err != nil {
		log.Fatalf("dag-server: %v", err)
	}
	if err := g.Validate(); err != nil {
		log.Fatalf("dag-server: %v", err)
	}

	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var history *rundb.DB
	if *historyDB != "" {
		history, err = rundb.Open(ctx, *historyDB)
		if err != nil {
			log.Fatalf("dag-server: open history db: %v", err)
		}
		defer history.Close()
	}

	var mu sync.Mutex
	latestResult := dag.Result{}
	running := true

	factory := dag.WorkerFactoryFunc[string](func(nodes []string) []dag.Worker[string] {
		workers := make([]dag.Worker[string], len(nodes))
		for i, n := range nodes {
			n := n
			workers[i] = dag.FuncWorker[string](0, func(ctx context.Context) dag.Outcome[string] {
				log.Printf("running %q", n)
				return dag.Outcome[string]{Success: true, Value: n}
			})
		}
		return workers
	})

	executor := dag.NewExecutor(
		g,
		factory,
		dag.WithPoolWidth[string](*poolWidth),
		dag.WithPollTimeout[string](*pollTimeout),
		dag.WithMetrics[string](metrics),
		dag.WithLogger[string](log.Default()),
	)

	go func() {
		startedAt := time.Now().UTC()
		result := executor.Run(ctx)
		mu.Lock()
		latestResult = result
		running = false
		mu.Unlock()
		log.Printf("run %s finished: success=%t", result.RunID, result.Success)

		if history != nil {
			// Use a fresh context for the history write: the run's own
			// ctx may already be cancelled (e.g. a shutdown signal cut
			// the run short), but the outcome is still worth recording.
			if err := history.RecordStart(context.Background(), result.RunID, startedAt); err != nil {
				log.Printf("history: record start: %v", err)
			}
			if err := history.RecordFinish(context.Background(), result.RunID, time.Now().UTC(), result.Success, result.ErrorMessage); err != nil {
				log.Printf("history: record finish: %v", err)
			}
		}
	}()

	snapshotter := transportgrpc.SnapshotterFunc(func() (map[string]any, error) {
		mu.Lock()
		defer mu.Unlock()
		return map[string]any{
			"running":       running,
			"run_id":        latestResult.RunID,
			"success":       latestResult.Success,
			"error_message": latestResult.ErrorMessage,
		}, nil
	})

	server := transportgrpc.NewServer(
		transportgrpc.WithSnapshotter(snapshotter),
		transportgrpc.WithMetrics(metrics),
	)

	go func() {
		if err := server.Serve(*listenAddr); err != nil {
			log.Printf("dag-server: serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	server.GracefulStop()
}

func loadGraph(path string) (*dag.Graph[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g := dag.NewGraph[string]()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			g.AddNode(fields[0])
		case 2:
			g.AddEdge(fields[0], fields[1])
		default:
			return nil, fmt.Errorf("%s:%d: expected one or two fields, got %d", path, lineNo, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return g, nil
}
