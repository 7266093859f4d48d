package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/mem"
	"github.com/prometheus/client_golang/prometheus"
)

// testRemote operates on a local store.
type testRemote struct {
	store    projection.Store
	consumer *ingest.Consumer
}

func (r *testRemote) Consume(ctx context.Context, events []projection.Event) (ingest.ConsumeResult, error) {
	return r.consumer.Consume(ctx, events)
}

func (r *testRemote) DeleteAll(ctx context.Context, kind projection.Kind) error {
	return r.store.DeleteAll(ctx, kind)
}

func (r *testRemote) Find(ctx context.Context, kind projection.Kind, filters map[string]string, options projection.QueryOptions) ([]any, error) {
	return projection.Find(ctx, r.store, kind, filters, options)
}

func (r *testRemote) FindById(ctx context.Context, kind projection.Kind, id string) (any, error) {
	return r.store.FindById(ctx, kind, id)
}

func (r *testRemote) Shutdown() {
	r.consumer.Shutdown()
	r.store.Shutdown()
}

func mustCreateRemote(t *testing.T) *testRemote {
	store, err := mem.New()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	consumer, err := ingest.NewConsumer(store, func(o *ingest.Options) {
		o.Workers = 2
		o.Registerer = prometheus.NewRegistry()
	})
	if err != nil {
		t.Fatalf("failed to create consumer: %v", err)
	}

	return &testRemote{store: store, consumer: consumer}
}

func mustExecute(t *testing.T, r remote, args []string) string {
	rootCmd := newRootCmd(&Cli{r: r})
	rootCmd.PersistentPostRun = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("failed to execute %v: %v", args, err)
	}

	return out.String()
}
