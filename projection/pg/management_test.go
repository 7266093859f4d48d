package pg

import (
	"context"
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestMigrateDatabase(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	pgStore := s.(*pgStore)

	t.Run("schema version set", func(t *testing.T) {
		// when
		w, cancel := pgStore.withTimeout(context.Background())
		defer cancel()

		ctx, err := w.require()
		if err != nil {
			t.Fatalf("failed to require context: %v", err)
		}

		schemaVersion, err := selectSchemaVersion(ctx)
		if err := w.release(ctx, err); err != nil {
			t.Fatalf("failed to select schema version: %v", err)
		}

		// then
		assert.Equal("0.1.0", schemaVersion)
	})

	t.Run("tables created", func(t *testing.T) {
		w, cancel := pgStore.withTimeout(context.Background())
		defer cancel()

		ctx, err := w.require()
		if err != nil {
			t.Fatalf("failed to require context: %v", err)
		}

		for _, table := range Tables {
			var exists bool
			row := ctx.tx.QueryRow(ctx.txCtx, "SELECT to_regclass($1) IS NOT NULL", ctx.options.databaseSchema+"."+table)
			if err := row.Scan(&exists); err != nil {
				w.release(ctx, err)
				t.Fatalf("failed to check table %s: %v", table, err)
			}

			assert.Truef(exists, "table %s not exists", table)
		}

		w.release(ctx, nil)
	})

	t.Run("migrate again", func(t *testing.T) {
		// when
		err := pgStore.migrateDatabase()

		// then
		assert.Nil(err)
	})

	t.Run("delete all of every kind", func(t *testing.T) {
		for _, kind := range projection.Kinds() {
			assert.Nilf(s.DeleteAll(context.Background(), kind), "failed to delete all %s", kind)
		}
	})
}
