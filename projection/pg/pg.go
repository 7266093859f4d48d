package pg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5/pgxpool"
)

func New(databaseUrl string, customizers ...func(*Options)) (projection.Store, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName
	}

	if databaseSchema, ok := pgPoolConfig.ConnConfig.RuntimeParams["search_path"]; ok {
		options.databaseSchema = databaseSchema
	}

	definitionCache, err := internal.NewDefinitionCache(options.Common.DefinitionCacheSize)
	if err != nil {
		return nil, err
	}

	ids, err := internal.NewIdGenerator(options.Common.NodeId)
	if err != nil {
		return nil, err
	}

	dispatcher, err := internal.NewDispatcher(internal.DefaultRegistrations()...)
	if err != nil {
		return nil, err
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	pgCtxPoolSize := int(pgPoolConfig.MaxConns)
	pgCtxPool := make(chan *pgContext, pgCtxPoolSize)

	for i := 0; i < pgCtxPoolSize; i++ {
		pgCtxPool <- &pgContext{options: options, definitionCache: definitionCache, ids: ids}
	}

	requireCtx, requireCancel := context.WithCancel(context.Background())

	pgStore := pgStore{
		requireCtx:    requireCtx,
		requireCancel: requireCancel,

		pgCtxPool: pgCtxPool,
		pgPool:    pgPool,
		txTimeout: options.Timeout,

		definitionCache: definitionCache,
		dispatcher:      dispatcher,
		options:         options,
	}

	if err := pgStore.migrateDatabase(); err != nil {
		pgStore.Shutdown()
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &pgStore, nil
}

func NewOptions() Options {
	return Options{
		Common: projection.Options{
			DefaultQueryLimit:   1000,
			DefinitionCacheSize: 100,
		},

		ApplicationName: "go-bpmn-query",
		Timeout:         30 * time.Second,

		databaseSchema: "public",
	}
}

type Options struct {
	Common projection.Options // Common options.

	ApplicationName string        // Used as runtime parameter "application_name", unless specified by the database URL.
	Timeout         time.Duration // Time limit for database transactions, utilized when the provided context has no deadline.

	databaseSchema string // derived from database URL - see runtime parameter "search_path"
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return o.Common.Validate()
}

type pgStore struct {
	requireCtx    context.Context    // used to prevent the requiring of a context, when the store is shut down
	requireCancel context.CancelFunc // invoked when a shutdown is initiated
	shutdownOnce  sync.Once          // used to prevent more than one shutdown

	pgCtxPool chan *pgContext
	pgPool    *pgxpool.Pool
	txTimeout time.Duration // utilized when the provided context has no deadline

	definitionCache *internal.DefinitionCache
	dispatcher      *internal.Dispatcher
	options         Options
}

func (s *pgStore) migrateDatabase() error {
	w, cancel := s.withTimeout(context.Background())
	defer cancel()

	ctx, err := w.require()
	if err != nil {
		return err
	}

	return w.release(ctx, migrateDatabase(ctx))
}

// withTimeout wraps the store, using the given context.
// If the context has no deadline, a context with a configurable timeout is derived.
func (s *pgStore) withTimeout(ctx context.Context) (*pgStoreWithContext, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return &pgStoreWithContext{s: s, ctx: ctx}, func() {}
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	return &pgStoreWithContext{s: s, ctx: ctx}, cancel
}

// pgStoreWithContext binds the store to an external context.
type pgStoreWithContext struct {
	s   *pgStore        // wrapped store
	ctx context.Context // external context
}

func (w *pgStoreWithContext) require() (*pgContext, error) {
	now := time.Now()

	pgStore := w.s

	select {
	case <-pgStore.requireCtx.Done():
		return nil, pgStore.requireCtx.Err()
	case <-w.ctx.Done():
		return nil, w.ctx.Err()
	case pgCtx := <-pgStore.pgCtxPool:
		tx, err := pgStore.pgPool.Begin(w.ctx)
		if err != nil {
			pgStore.pgCtxPool <- pgCtx
			return nil, err
		}

		// must be UTC and truncated to millis, since TIMESTAMP(3) is used
		pgCtx.time = now.UTC().Truncate(time.Millisecond)

		pgCtx.tx = tx
		pgCtx.txCtx = w.ctx

		return pgCtx, nil
	}
}

func (w *pgStoreWithContext) release(pgCtx *pgContext, err error) error {
	if err != nil {
		_ = pgCtx.tx.Rollback(pgCtx.txCtx)

		// cached definitions may stem from the rolled back transaction
		pgCtx.definitionCache.Clear()
	} else if err = pgCtx.tx.Commit(pgCtx.txCtx); err == nil {
		pgCtx.evictDefinitions()
	} else {
		pgCtx.definitionCache.Clear()
	}

	pgCtx.tx = nil
	pgCtx.txCtx = nil
	pgCtx.evictions = nil
	pgCtx.evictAll = false

	w.s.pgCtxPool <- pgCtx
	return err
}

func (s *pgStore) Project(ctx context.Context, events []projection.Event) (projection.ProjectResult, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	return internal.ProjectBatch(s.dispatcher, s.options.Common, events, func(event projection.Event) error {
		pgCtx, err := w.require()
		if err != nil {
			return err
		}

		if err := lockAggregates(pgCtx, event.AggregateIds()); err != nil {
			return w.release(pgCtx, err)
		}

		_, err = s.dispatcher.Dispatch(pgCtx, event)
		return w.release(pgCtx, err)
	})
}

func (s *pgStore) FindById(ctx context.Context, kind projection.Kind, id string) (any, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return nil, err
	}

	result, err := internal.FindById(pgCtx, kind, id)
	return result, w.release(pgCtx, err)
}

func (s *pgStore) Query(ctx context.Context, criteria any) ([]any, error) {
	return s.QueryWithOptions(ctx, criteria, projection.QueryOptions{})
}

func (s *pgStore) QueryWithOptions(ctx context.Context, criteria any, options projection.QueryOptions) ([]any, error) {
	query := internal.NewQuery(criteria)
	if query == nil {
		return nil, projection.Error{
			Type:   projection.ErrorQuery,
			Title:  "failed to create query",
			Detail: fmt.Sprintf("unsupported criteria type %T", criteria),
		}
	}

	if options.Limit <= 0 {
		options.Limit = s.options.Common.DefaultQueryLimit
	}

	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return nil, err
	}

	results, err := query(pgCtx, options)
	if results == nil && err == nil {
		results = make([]any, 0)
	}
	return results, w.release(pgCtx, err)
}

func (s *pgStore) DeleteAll(ctx context.Context, kind projection.Kind) error {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return err
	}

	return w.release(pgCtx, internal.DeleteAll(pgCtx, kind))
}

func (s *pgStore) Append(ctx context.Context, events []projection.Event) ([]projection.AuditEvent, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return nil, err
	}

	entities, err := internal.AppendAuditEvents(pgCtx, events)
	if err := w.release(pgCtx, err); err != nil {
		return nil, err
	}

	auditEvents := make([]projection.AuditEvent, len(entities))
	for i, entity := range entities {
		auditEvents[i] = entity.AuditEvent()
	}
	return auditEvents, nil
}

func (s *pgStore) Purge(ctx context.Context, before time.Time) (int, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return 0, err
	}

	count, err := pgCtx.AuditEvents().Purge(before.UTC())
	return count, w.release(pgCtx, err)
}

func (s *pgStore) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.requireCancel()
		s.pgPool.Close()

		for len(s.pgCtxPool) > 0 {
			<-s.pgCtxPool
		}

		s.definitionCache.Clear()

		close(s.pgCtxPool)
	})
}

// API key manager

func (s *pgStore) CreateApiKey(ctx context.Context, secretId string) (ApiKey, string, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return ApiKey{}, "", err
	}

	apiKey, authorization, err := createApiKey(pgCtx, secretId)
	return apiKey, authorization, w.release(pgCtx, err)
}

func (s *pgStore) GetApiKey(ctx context.Context, authorization string) (ApiKey, error) {
	w, cancel := s.withTimeout(ctx)
	defer cancel()

	pgCtx, err := w.require()
	if err != nil {
		return ApiKey{}, err
	}

	apiKey, err := getApiKey(pgCtx, authorization)
	return apiKey, w.release(pgCtx, err)
}
