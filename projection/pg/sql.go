package pg

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
)

var (
	sqlTemplateFunctions = template.FuncMap{
		"joinBPMNActivityStatus":       joinStringer[projection.BPMNActivityStatus],
		"joinIntegrationContextStatus": joinStringer[projection.IntegrationContextStatus],
		"joinProcessInstanceStatus":    joinStringer[projection.ProcessInstanceStatus],
		"joinString":                   joinString,
		"joinTaskStatus":               joinStringer[projection.TaskStatus],
		"quoteString":                  quoteString,
		"quoteTime":                    quoteTime,
	}

	sqlApplicationQuery        *template.Template = newSqlTemplate("application_query.sql")
	sqlAuditEventQuery         *template.Template = newSqlTemplate("audit_event_query.sql")
	sqlBPMNActivityQuery       *template.Template = newSqlTemplate("bpmn_activity_query.sql")
	sqlBPMNSequenceFlowQuery   *template.Template = newSqlTemplate("bpmn_sequence_flow_query.sql")
	sqlCandidateQuery          *template.Template = newSqlTemplate("candidate_query.sql")
	sqlIntegrationContextQuery *template.Template = newSqlTemplate("integration_context_query.sql")
	sqlProcessDefinitionQuery  *template.Template = newSqlTemplate("process_definition_query.sql")
	sqlProcessInstanceQuery    *template.Template = newSqlTemplate("process_instance_query.sql")
	sqlProcessModelQuery       *template.Template = newSqlTemplate("process_model_query.sql")
	sqlTaskQuery               *template.Template = newSqlTemplate("task_query.sql")
	sqlVariableQuery           *template.Template = newSqlTemplate("variable_query.sql")
)

func newSqlTemplate(name string) *template.Template {
	return template.Must(template.New(name).Funcs(sqlTemplateFunctions).ParseFS(resources, "sql/"+name))
}

func executeSqlTemplate(t *template.Template, data map[string]any) (string, error) {
	var sql strings.Builder
	if err := t.Execute(&sql, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %v", t.Name(), err)
	}
	return sql.String(), nil
}

func joinString(values []string) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = quoteString(v)
	}
	return strings.Join(s, ",")
}

func joinStringer[T fmt.Stringer](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = quoteString(v.String())
	}
	return strings.Join(s, ",")
}

// copied from https://github.com/jackc/pgx/blob/v5.5.0/internal/sanitize/sanitize.go#L90
func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func quoteTime(value *time.Time) string {
	return quoteString(value.UTC().Format("2006-01-02 15:04:05.000"))
}
