package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
)

func New(customizers ...func(*Options)) (projection.Store, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	ctx, err := newMemContext(options)
	if err != nil {
		return nil, err
	}

	memStore := memStore{
		ctx:        ctx,
		dispatcher: internal.MustDefaultDispatcher(),

		defaultQueryLimit: options.Common.DefaultQueryLimit,
	}

	return &memStore, nil
}

func NewOptions() Options {
	return Options{
		Common: projection.Options{
			DefaultQueryLimit:   1000,
			DefinitionCacheSize: 100,
		},
	}
}

type Options struct {
	Common projection.Options // Common options
}

func (o Options) Validate() error {
	return o.Common.Validate()
}

type memStore struct {
	ctxMutex sync.RWMutex
	ctx      *memContext

	dispatcher *internal.Dispatcher

	defaultQueryLimit int
}

func (s *memStore) Project(_ context.Context, events []projection.Event) (projection.ProjectResult, error) {
	return internal.ProjectBatch(s.dispatcher, s.ctx.options.Common, events, func(event projection.Event) error {
		defer s.unlock()
		ctx := s.wlock()

		ctx.begin()
		if _, err := s.dispatcher.Dispatch(ctx, event); err != nil {
			ctx.rollback()
			return err
		}
		ctx.commit()
		return nil
	})
}

func (s *memStore) FindById(_ context.Context, kind projection.Kind, id string) (any, error) {
	defer s.runlock()
	return internal.FindById(s.rlock(), kind, id)
}

func (s *memStore) Query(ctx context.Context, criteria any) ([]any, error) {
	return s.QueryWithOptions(ctx, criteria, projection.QueryOptions{})
}

func (s *memStore) QueryWithOptions(_ context.Context, criteria any, options projection.QueryOptions) ([]any, error) {
	query := internal.NewQuery(criteria)
	if query == nil {
		return nil, projection.Error{
			Type:   projection.ErrorQuery,
			Title:  "failed to create query",
			Detail: fmt.Sprintf("unsupported criteria type %T", criteria),
		}
	}

	if options.Limit <= 0 {
		options.Limit = s.defaultQueryLimit
	}

	defer s.runlock()
	return query(s.rlock(), options)
}

func (s *memStore) DeleteAll(_ context.Context, kind projection.Kind) error {
	defer s.unlock()
	return internal.DeleteAll(s.wlock(), kind)
}

func (s *memStore) Append(_ context.Context, events []projection.Event) ([]projection.AuditEvent, error) {
	defer s.unlock()

	entities, err := internal.AppendAuditEvents(s.wlock(), events)
	if err != nil {
		return nil, err
	}

	auditEvents := make([]projection.AuditEvent, len(entities))
	for i, entity := range entities {
		auditEvents[i] = entity.AuditEvent()
	}
	return auditEvents, nil
}

func (s *memStore) Purge(_ context.Context, before time.Time) (int, error) {
	defer s.unlock()
	return s.wlock().AuditEvents().Purge(before)
}

func (s *memStore) Shutdown() {
	defer s.unlock()
	s.wlock().clear()
}

func (s *memStore) rlock() *memContext {
	s.ctxMutex.RLock()
	return s.ctx
}

func (s *memStore) runlock() {
	s.ctxMutex.RUnlock()
}

func (s *memStore) wlock() *memContext {
	now := time.Now()

	s.ctxMutex.Lock()

	// must be UTC and truncated to millis (see projection/pg/pg.go:pgStoreWithContext#require)
	s.ctx.time = now.UTC().Truncate(time.Millisecond)

	return s.ctx
}

func (s *memStore) unlock() {
	s.ctxMutex.Unlock()
}
