package cli

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gclaussn/go-bpmn-query/projection"
)

func formatInt32(v int32) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(int(v))
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(time.RFC3339)
}

func formatTimeOrNil(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

// formatTimestamp formats milliseconds since epoch.
func formatTimestamp(v int64) string {
	if v == 0 {
		return ""
	}
	return formatTime(time.UnixMilli(v).UTC())
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// formatResults formats query results of a specific kind as table.
func formatResults(kind projection.Kind, results []any) string {
	var table table

	switch kind {
	case projection.KindApplication:
		table = newTable([]string{"DEPLOYMENT ID", "NAME", "VERSION"})
		for _, result := range results {
			v := result.(projection.Application)
			table.addRow([]string{v.DeploymentId, v.Name, v.Version})
		}
	case projection.KindAuditEvent:
		table = newTable([]string{"MESSAGE ID", "SEQUENCE NUMBER", "EVENT ID", "EVENT TYPE", "TIMESTAMP", "ENTITY ID"})
		for _, result := range results {
			v := result.(projection.AuditEvent)
			table.addRow([]string{
				v.MessageId,
				strconv.Itoa(v.SequenceNumber),
				v.EventId,
				v.EventType,
				formatTimestamp(v.Timestamp),
				v.EntityId,
			})
		}
	case projection.KindBPMNActivity:
		table = newTable([]string{"ID", "PROCESS INSTANCE ID", "ELEMENT ID", "ACTIVITY TYPE", "STATUS", "STARTED DATE", "COMPLETED DATE"})
		for _, result := range results {
			v := result.(projection.BPMNActivity)
			table.addRow([]string{
				v.Id,
				v.ProcessInstanceId,
				v.ElementId,
				v.ActivityType,
				v.Status.String(),
				formatTime(v.StartedDate),
				formatTimeOrNil(v.CompletedDate),
			})
		}
	case projection.KindBPMNSequenceFlow:
		table = newTable([]string{"ID", "PROCESS INSTANCE ID", "SOURCE", "TARGET", "DATE"})
		for _, result := range results {
			v := result.(projection.BPMNSequenceFlow)
			table.addRow([]string{
				v.Id,
				v.ProcessInstanceId,
				v.SourceActivityElementId,
				v.TargetActivityElementId,
				formatTime(v.Date),
			})
		}
	case projection.KindCandidateGroup:
		table = newTable([]string{"GROUP ID", "TASK ID", "PROCESS DEFINITION ID"})
		for _, result := range results {
			v := result.(projection.CandidateGroup)
			table.addRow([]string{v.GroupId, v.TaskId, v.ProcessDefinitionId})
		}
	case projection.KindCandidateUser:
		table = newTable([]string{"USER ID", "TASK ID", "PROCESS DEFINITION ID"})
		for _, result := range results {
			v := result.(projection.CandidateUser)
			table.addRow([]string{v.UserId, v.TaskId, v.ProcessDefinitionId})
		}
	case projection.KindIntegrationContext:
		table = newTable([]string{"ID", "PROCESS INSTANCE ID", "CLIENT ID", "CONNECTOR TYPE", "STATUS", "REQUEST DATE", "ERROR MESSAGE"})
		for _, result := range results {
			v := result.(projection.IntegrationContext)
			table.addRow([]string{
				v.Id,
				v.ProcessInstanceId,
				v.ClientId,
				v.ConnectorType,
				v.Status.String(),
				formatTimeOrNil(v.RequestDate),
				v.ErrorMessage,
			})
		}
	case projection.KindProcessDefinition:
		table = newTable([]string{"ID", "KEY", "NAME", "VERSION", "APP NAME"})
		for _, result := range results {
			v := result.(projection.ProcessDefinition)
			table.addRow([]string{v.Id, v.Key, v.Name, formatInt32(v.Version), v.AppName})
		}
	case projection.KindProcessInstance:
		table = newTable([]string{"ID", "PROCESS DEFINITION KEY", "VERSION", "BUSINESS KEY", "STATUS", "START DATE", "COMPLETED DATE"})
		for _, result := range results {
			v := result.(projection.ProcessInstance)
			table.addRow([]string{
				v.Id,
				v.ProcessDefinitionKey,
				formatInt32(v.ProcessDefinitionVersion),
				v.BusinessKey,
				v.Status.String(),
				formatTimeOrNil(v.StartDate),
				formatTimeOrNil(v.CompletedDate),
			})
		}
	case projection.KindProcessModel:
		table = newTable([]string{"PROCESS DEFINITION ID", "CONTENT LENGTH"})
		for _, result := range results {
			v := result.(projection.ProcessModel)
			table.addRow([]string{v.ProcessDefinitionId, strconv.Itoa(len(v.Content))})
		}
	case projection.KindProcessVariable, projection.KindTaskVariable:
		table = newTable([]string{"ID", "PROCESS INSTANCE ID", "TASK ID", "NAME", "TYPE", "VALUE", "DELETED"})
		for _, result := range results {
			v := result.(projection.Variable)
			table.addRow([]string{
				v.Id,
				v.ProcessInstanceId,
				v.TaskId,
				v.Name,
				v.Type,
				formatValue(v.Value),
				strconv.FormatBool(v.MarkedAsDeleted),
			})
		}
	case projection.KindTask:
		table = newTable([]string{"ID", "PROCESS INSTANCE ID", "NAME", "ASSIGNEE", "STATUS", "CREATED DATE", "DUE DATE"})
		for _, result := range results {
			v := result.(projection.Task)
			table.addRow([]string{
				v.Id,
				v.ProcessInstanceId,
				v.Name,
				v.Assignee,
				v.Status.String(),
				formatTime(v.CreatedDate),
				formatTimeOrNil(v.DueDate),
			})
		}
	default:
		table = newTable([]string{"RESULT"})
		for _, result := range results {
			table.addRow([]string{formatValue(result)})
		}
	}

	return table.format()
}

func newTable(headers []string) table {
	rows := make([][]string, 2)
	rows[0] = headers
	rows[1] = make([]string, len(headers))

	return table{rows: rows}
}

type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)

			l := utf8.RuneCountInString(value)
			for k := 0; k < columns[j]-l; k++ {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
