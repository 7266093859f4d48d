package pg

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
)

// schemaVersionTable is the table, which carries the schema version as comment.
const schemaVersionTable = "audit_event"

var Tables = []string{
	"api_key",
	"application",
	"audit_event",
	"bpmn_activity",
	"bpmn_sequence_flow",
	"candidate_group",
	"candidate_user",
	"integration_context",
	"process_definition",
	"process_instance",
	"process_model",
	"process_variable",
	"task",
	"task_variable",
}

//go:embed ddl migration sql
var resources embed.FS

// migrateDatabase creates all tables and indices, unless a schema version is found.
func migrateDatabase(ctx *pgContext) error {
	b, err := resources.ReadFile("migration/version.txt")
	if err != nil {
		return fmt.Errorf("failed to read resource migration/version.txt: %v", err)
	}

	versions := make([]string, 0, 1)

	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			versions = append(versions, line)
		}
	}

	if len(versions) == 0 {
		return fmt.Errorf("resource migration/version.txt is empty")
	}

	schemaVersion, err := selectSchemaVersion(ctx)
	if err != nil {
		return err
	}

	if schemaVersion != "" {
		return nil
	}

	ddl, err := resources.ReadDir("ddl")
	if err != nil {
		return fmt.Errorf("failed to list resources under ddl: %v", err)
	}

	for _, entry := range ddl {
		if entry.IsDir() {
			continue
		}

		name := "ddl/" + entry.Name()
		b, err := resources.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read resource %s: %v", name, err)
		}

		createTable := string(b)
		if _, err := ctx.tx.Exec(ctx.txCtx, createTable); err != nil {
			return fmt.Errorf("failed to execute %s: %v", name, err)
		}
	}

	idx, err := resources.ReadDir("ddl/idx")
	if err != nil {
		return fmt.Errorf("failed to list resources under ddl/idx: %v", err)
	}

	for _, entry := range idx {
		name := "ddl/idx/" + entry.Name()
		b, err := resources.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read resource %s: %v", name, err)
		}

		scanner := bufio.NewScanner(bytes.NewReader(b))
		for scanner.Scan() {
			createIndex := scanner.Text()
			if createIndex == "" {
				continue
			}
			if _, err := ctx.tx.Exec(ctx.txCtx, createIndex); err != nil {
				return fmt.Errorf("failed to execute %s: %v", name, err)
			}
		}
	}

	commentOnTable := fmt.Sprintf("COMMENT ON TABLE %s IS %s", schemaVersionTable, quoteString(versions[len(versions)-1]))
	if _, err := ctx.tx.Exec(ctx.txCtx, commentOnTable); err != nil {
		return fmt.Errorf("failed to set schema version: %v", err)
	}

	return nil
}

func selectSchemaVersion(ctx *pgContext) (string, error) {
	row := ctx.tx.QueryRow(ctx.txCtx, `
SELECT
	description
FROM
	pg_description
INNER JOIN
	pg_class
ON
	pg_description.objoid = pg_class.oid
INNER JOIN
	pg_namespace
ON
	pg_class.relnamespace = pg_namespace.oid
WHERE
	nspname = $1 AND
	relname = $2
`, ctx.options.databaseSchema, schemaVersionTable)

	var schemaVersion string
	if err := row.Scan(&schemaVersion); err != nil {
		if err != pgx.ErrNoRows {
			return "", fmt.Errorf("failed to select schema version: %v", err)
		}
	}

	return schemaVersion, nil
}

// lockAggregates acquires transaction level advisory locks for the given aggregates.
// Locks are acquired in a sorted order, so that concurrent transactions cannot deadlock.
func lockAggregates(ctx *pgContext, aggregateIds []string) error {
	aggregateIds = slices.Clone(aggregateIds)
	slices.Sort(aggregateIds)

	for _, aggregateId := range aggregateIds {
		if _, err := ctx.tx.Exec(ctx.txCtx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", aggregateId); err != nil {
			return fmt.Errorf("failed to lock aggregate %s: %v", aggregateId, err)
		}
	}
	return nil
}
