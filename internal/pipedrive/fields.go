package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Field is the metadata of one custom field, as listed by the v1
// *Fields endpoints.
type Field struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	FieldType string `json:"field_type"`
}

func (c *Client) listFields(ctx context.Context, endpoint string) ([]Field, error) {
	raw, err := c.getAllV1(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(raw))
	for _, item := range raw {
		var f Field
		if err := json.Unmarshal(item, &f); err != nil {
			return nil, fmt.Errorf("failed to decode field from %s: %w", endpoint, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (c *Client) PersonFields(ctx context.Context) ([]Field, error) {
	return c.listFields(ctx, "personFields")
}

func (c *Client) DealFields(ctx context.Context) ([]Field, error) {
	return c.listFields(ctx, "dealFields")
}

func (c *Client) OrganizationFields(ctx context.Context) ([]Field, error) {
	return c.listFields(ctx, "organizationFields")
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CurrentUser validates the token and returns who it belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	env, err := c.do(ctx, http.MethodGet, "users/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(env.Data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode current user: %w", err)
	}
	return &u, nil
}

type Pipeline struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Stage struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PipelineID int    `json:"pipeline_id"`
}

func (c *Client) Pipelines(ctx context.Context) ([]Pipeline, error) {
	raw, err := c.getAllV2(ctx, "pipelines", nil)
	if err != nil {
		return nil, err
	}
	pipelines := make([]Pipeline, 0, len(raw))
	for _, item := range raw {
		var p Pipeline
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("failed to decode pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func (c *Client) Stages(ctx context.Context) ([]Stage, error) {
	raw, err := c.getAllV2(ctx, "stages", nil)
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, 0, len(raw))
	for _, item := range raw {
		var s Stage
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("failed to decode stage: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}
