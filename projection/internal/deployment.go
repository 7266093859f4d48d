package internal

import (
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5/pgtype"
)

type ApplicationEntity struct {
	DeploymentId string

	Name    pgtype.Text
	Version pgtype.Text
}

func (e ApplicationEntity) Application() projection.Application {
	return projection.Application{
		DeploymentId: e.DeploymentId,

		Name:    e.Name.String,
		Version: e.Version.String,
	}
}

type ApplicationRepository interface {
	DeleteAll() error
	Select(deploymentId string) (*ApplicationEntity, error)
	Upsert(*ApplicationEntity) error

	Query(projection.ApplicationCriteria, projection.QueryOptions) ([]any, error)
}

type ProcessDefinitionEntity struct {
	Id string

	Category    pgtype.Text
	Description pgtype.Text
	FormKey     pgtype.Text
	Key         string
	Name        pgtype.Text
	Version     int32

	AppName        pgtype.Text
	AppVersion     pgtype.Text
	ServiceName    pgtype.Text
	ServiceVersion pgtype.Text
}

func (e ProcessDefinitionEntity) ProcessDefinition() projection.ProcessDefinition {
	return projection.ProcessDefinition{
		Id: e.Id,

		Category:    e.Category.String,
		Description: e.Description.String,
		FormKey:     e.FormKey.String,
		Key:         e.Key,
		Name:        e.Name.String,
		Version:     e.Version,

		AppName:        e.AppName.String,
		AppVersion:     e.AppVersion.String,
		ServiceName:    e.ServiceName.String,
		ServiceVersion: e.ServiceVersion.String,
	}
}

type ProcessDefinitionRepository interface {
	DeleteAll() error
	Select(id string) (*ProcessDefinitionEntity, error)
	Upsert(*ProcessDefinitionEntity) error

	Query(projection.ProcessDefinitionCriteria, projection.QueryOptions) ([]any, error)
}

type ProcessModelEntity struct {
	ProcessDefinitionId string

	Content string
}

func (e ProcessModelEntity) ProcessModel() projection.ProcessModel {
	return projection.ProcessModel{
		ProcessDefinitionId: e.ProcessDefinitionId,

		Content: e.Content,
	}
}

type ProcessModelRepository interface {
	Delete(processDefinitionId string) error
	DeleteAll() error
	Select(processDefinitionId string) (*ProcessModelEntity, error)
	Upsert(*ProcessModelEntity) error

	Query(projection.ProcessModelCriteria, projection.QueryOptions) ([]any, error)
}

// DeployApplication creates or replaces an application.
func DeployApplication(ctx Context, event projection.Event) error {
	var payload projection.ApplicationPayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	entity := ApplicationEntity{
		DeploymentId: payload.DeploymentId,

		Name:    text(firstNonEmpty(payload.Name, event.AppName)),
		Version: text(firstNonEmpty(payload.Version, event.AppVersion)),
	}

	return ctx.Applications().Upsert(&entity)
}

// DeployProcessDefinition creates or replaces a process definition and its model, if the event provides one.
// A cached definition with the same ID is evicted.
func DeployProcessDefinition(ctx Context, event projection.Event) error {
	var payload projection.ProcessDefinitionPayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	key := firstNonEmpty(payload.Key, event.ProcessDefinitionKey)
	if key == "" {
		return projection.Error{
			Type:   projection.ErrorValidation,
			Title:  "failed to deploy process definition",
			Detail: "process definition " + payload.Id + " has no key",
		}
	}

	version := payload.Version
	if version == 0 {
		version = event.ProcessDefinitionVersion
	}

	entity := ProcessDefinitionEntity{
		Id: payload.Id,

		Category:    text(payload.Category),
		Description: text(payload.Description),
		FormKey:     text(payload.FormKey),
		Key:         key,
		Name:        text(payload.Name),
		Version:     version,

		AppName:        text(event.AppName),
		AppVersion:     text(event.AppVersion),
		ServiceName:    text(event.ServiceName),
		ServiceVersion: text(event.ServiceVersion),
	}

	if err := ctx.ProcessDefinitions().Upsert(&entity); err != nil {
		return err
	}

	ctx.EvictDefinitions(entity.Id)

	// a redeployment without content must not keep the content of the previous deployment
	if payload.ProcessModelContent == "" {
		return ctx.ProcessModels().Delete(entity.Id)
	}

	model := ProcessModelEntity{
		ProcessDefinitionId: entity.Id,

		Content: payload.ProcessModelContent,
	}

	return ctx.ProcessModels().Upsert(&model)
}
