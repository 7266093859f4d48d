package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return validate
}

// decodeEntity decodes the payload of an event and validates it.
func decodeEntity(event projection.Event, v any) error {
	if err := event.DecodeEntity(v); err != nil {
		return err
	}

	if err := validate.Struct(v); err != nil {
		var causes []projection.ErrorCause
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				causes = append(causes, projection.ErrorCause{
					Pointer: "/entity/" + fieldError.Field(),
					Type:    fieldError.Tag(),
					Detail:  fmt.Sprintf("field %s is invalid", fieldError.Field()),
				})
			}
		}

		return projection.Error{
			Type:   projection.ErrorValidation,
			Title:  "failed to validate event entity",
			Detail: fmt.Sprintf("event %s has an invalid entity", event),
			Causes: causes,
		}
	}

	return nil
}

// decodeJSON decodes a JSON value, keeping numbers as [json.Number].
func decodeJSON(v pgtype.Text) any {
	if !v.Valid || v.String == "" {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(v.String)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return v.String // not JSON, return as is
	}
	return value
}

func decodeJSONMap(v pgtype.Text) map[string]any {
	if !v.Valid {
		return nil
	}

	var m map[string]any
	_ = json.Unmarshal([]byte(v.String), &m)
	return m
}

func encodeJSON(v any) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(b), Valid: true}
}

// eventTime returns the time of an event or the store's time, if the event has no timestamp.
func eventTime(ctx Context, event projection.Event) time.Time {
	if event.Timestamp <= 0 {
		return ctx.Time()
	}
	return event.Time()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func int4(v int32) pgtype.Int4 {
	return pgtype.Int4{Int32: v, Valid: v != 0}
}

func notFound(title string, format string, args ...any) error {
	return projection.Error{
		Type:   projection.ErrorNotFound,
		Title:  title,
		Detail: fmt.Sprintf(format, args...),
	}
}

func text(v string) pgtype.Text {
	return pgtype.Text{String: v, Valid: v != ""}
}

func timeOrNil(v pgtype.Timestamp) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func timestamp(v time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{Time: v, Valid: !v.IsZero()}
}

func timestampOrNil(v *time.Time) pgtype.Timestamp {
	if v == nil {
		return pgtype.Timestamp{}
	}
	return timestamp(v.UTC().Truncate(time.Millisecond))
}
