package service

import (
	"context"
	"fmt"

	"pipedrive-sync/internal/pipedrive"
)

// FieldsAPI is the slice of the CRM client used to inspect field
// definitions when (re)building the field map.
type FieldsAPI interface {
	PersonFields(ctx context.Context) ([]pipedrive.Field, error)
	DealFields(ctx context.Context) ([]pipedrive.Field, error)
	OrganizationFields(ctx context.Context) ([]pipedrive.Field, error)
	Pipelines(ctx context.Context) ([]pipedrive.Pipeline, error)
	Stages(ctx context.Context) ([]pipedrive.Stage, error)
	CurrentUser(ctx context.Context) (*pipedrive.User, error)
}

type FieldsService struct {
	api FieldsAPI
}

func NewFieldsService(api FieldsAPI) *FieldsService {
	return &FieldsService{api: api}
}

// Fields lists the CRM field definitions of one entity kind: "person",
// "deal" or "organization".
func (s *FieldsService) Fields(ctx context.Context, kind string) ([]pipedrive.Field, error) {
	switch kind {
	case "person":
		return s.api.PersonFields(ctx)
	case "deal":
		return s.api.DealFields(ctx)
	case "organization":
		return s.api.OrganizationFields(ctx)
	default:
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
}

func (s *FieldsService) Pipelines(ctx context.Context) ([]pipedrive.Pipeline, error) {
	return s.api.Pipelines(ctx)
}

func (s *FieldsService) Stages(ctx context.Context) ([]pipedrive.Stage, error) {
	return s.api.Stages(ctx)
}

// CheckConnection verifies the token by asking the API who we are.
func (s *FieldsService) CheckConnection(ctx context.Context) (*pipedrive.User, error) {
	return s.api.CurrentUser(ctx)
}
