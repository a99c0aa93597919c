package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type Deal struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	PipelineID int     `json:"pipeline_id"`
	StageID    int     `json:"stage_id"`
	Status     string  `json:"status"`
	PersonID   int     `json:"person_id"`
	Value      float64 `json:"value"`
	LostReason string  `json:"lost_reason"`
}

const (
	DealStatusOpen = "open"
	DealStatusWon  = "won"
	DealStatusLost = "lost"
)

type DealInput struct {
	Title      string
	PersonID   int
	PipelineID int
	StageID    int
	Value      decimal.Decimal
	Custom     map[string]any
}

// DealUpdate patches a deal; nil fields stay untouched.
type DealUpdate struct {
	Title      *string
	Status     *string
	PipelineID *int
	StageID    *int
	Value      *decimal.Decimal
	LostReason *string
	Custom     map[string]any
}

func (c *Client) dealCustom(custom map[string]any) map[string]any {
	out := map[string]any{}
	for name, value := range custom {
		formatted := FormatFieldValue(name, value)
		if formatted == nil {
			continue
		}
		out[c.fields.DealField(name)] = formatted
	}
	return out
}

// CreateDeal opens a deal in the given pipeline stage.
func (c *Client) CreateDeal(ctx context.Context, in DealInput) (*Deal, error) {
	body := map[string]any{
		"title":       truncate(in.Title, maxTextLen),
		"status":      DealStatusOpen,
		"pipeline_id": in.PipelineID,
		"stage_id":    in.StageID,
		"currency":    "BRL",
	}
	if in.PersonID > 0 {
		body["person_id"] = in.PersonID
	}
	if c.ownerID > 0 {
		body["owner_id"] = c.ownerID
	}
	if in.Value.IsPositive() {
		body["value"] = in.Value.InexactFloat64()
	}
	if custom := c.dealCustom(in.Custom); len(custom) > 0 {
		body["custom_fields"] = custom
	}

	env, err := c.do(ctx, http.MethodPost, "deals", nil, body)
	if err != nil {
		return nil, err
	}

	var d Deal
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode created deal: %w", err)
	}
	return &d, nil
}

func (c *Client) UpdateDeal(ctx context.Context, id int, upd DealUpdate) error {
	body := map[string]any{}
	if upd.Title != nil {
		body["title"] = truncate(*upd.Title, maxTextLen)
	}
	if upd.Status != nil {
		body["status"] = *upd.Status
	}
	if upd.PipelineID != nil {
		body["pipeline_id"] = *upd.PipelineID
	}
	if upd.StageID != nil {
		body["stage_id"] = *upd.StageID
	}
	if upd.Value != nil {
		body["value"] = upd.Value.InexactFloat64()
		body["currency"] = "BRL"
	}
	if upd.LostReason != nil {
		body["lost_reason"] = truncate(*upd.LostReason, maxTextLen)
	}
	if custom := c.dealCustom(upd.Custom); len(custom) > 0 {
		body["custom_fields"] = custom
	}
	if len(body) == 0 {
		return nil
	}

	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("deals/%d", id), nil, body)
	return err
}

// MarkDealLost closes a deal with the given reason.
func (c *Client) MarkDealLost(ctx context.Context, id int, reason string) error {
	status := DealStatusLost
	return c.UpdateDeal(ctx, id, DealUpdate{Status: &status, LostReason: &reason})
}

// MarkDealWon closes a deal as won.
func (c *Client) MarkDealWon(ctx context.Context, id int) error {
	status := DealStatusWon
	return c.UpdateDeal(ctx, id, DealUpdate{Status: &status})
}

// ReopenDeal puts a deal back in play at a specific pipeline stage.
func (c *Client) ReopenDeal(ctx context.Context, id, pipelineID, stageID int) error {
	status := DealStatusOpen
	return c.UpdateDeal(ctx, id, DealUpdate{Status: &status, PipelineID: &pipelineID, StageID: &stageID})
}

func decodeDeals(raw []json.RawMessage) ([]Deal, error) {
	deals := make([]Deal, 0, len(raw))
	for _, item := range raw {
		var d Deal
		if err := json.Unmarshal(item, &d); err != nil {
			return nil, fmt.Errorf("failed to decode deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, nil
}

// DealsByPerson lists every deal linked to a person, any status.
func (c *Client) DealsByPerson(ctx context.Context, personID int) ([]Deal, error) {
	q := url.Values{}
	q.Set("person_id", fmt.Sprint(personID))
	q.Set("status", "all_not_deleted")

	raw, err := c.getAllV2(ctx, "deals", q)
	if err != nil {
		return nil, err
	}
	return decodeDeals(raw)
}

// DealsByPipeline lists every deal of one pipeline, any status.
func (c *Client) DealsByPipeline(ctx context.Context, pipelineID int) ([]Deal, error) {
	q := url.Values{}
	q.Set("pipeline_id", fmt.Sprint(pipelineID))
	q.Set("status", "all_not_deleted")

	raw, err := c.getAllV2(ctx, "deals", q)
	if err != nil {
		return nil, err
	}
	return decodeDeals(raw)
}

func (c *Client) DeleteDeal(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("deals/%d", id), nil, nil)
	return err
}
