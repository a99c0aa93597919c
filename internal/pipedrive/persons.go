package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pipedrive-sync/internal/document"
)

type ContactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

type Person struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	OrgID        int            `json:"org_id"`
	Phones       []ContactValue `json:"phones"`
	Emails       []ContactValue `json:"emails"`
	CustomFields map[string]any `json:"custom_fields"`
}

// PersonInput carries person data by logical field name. Custom values
// are shaped for the API by the field formatters.
type PersonInput struct {
	Name   string
	Phones []string
	Emails []string
	OrgID  int
	Custom map[string]any
}

func contactValues(values []string) []map[string]any {
	out := make([]map[string]any, 0, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, map[string]any{"value": truncate(v, maxTextLen), "primary": i == 0})
	}
	return out
}

func (c *Client) personBody(in PersonInput, includeOrg bool) map[string]any {
	body := map[string]any{}
	if in.Name != "" {
		body["name"] = truncate(in.Name, maxTextLen)
	}
	if phones := contactValues(in.Phones); len(phones) > 0 {
		body["phones"] = phones
	}
	if emails := contactValues(in.Emails); len(emails) > 0 {
		body["emails"] = emails
	}
	if includeOrg && in.OrgID > 0 {
		body["org_id"] = in.OrgID
	}

	custom := map[string]any{}
	for name, value := range in.Custom {
		formatted := FormatFieldValue(name, value)
		if formatted == nil {
			continue
		}
		custom[c.fields.PersonField(name)] = formatted
	}
	if len(custom) > 0 {
		body["custom_fields"] = custom
	}
	return body
}

// CreatePerson adds a person. When the linked organization is rejected
// the create is retried once without it, so a stale org id never blocks
// a new debtor.
func (c *Client) CreatePerson(ctx context.Context, in PersonInput) (*Person, error) {
	body := c.personBody(in, true)
	if c.ownerID > 0 {
		body["owner_id"] = c.ownerID
	}

	env, err := c.do(ctx, http.MethodPost, "persons", nil, body)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusBadRequest && in.OrgID > 0 {
			c.log.Warnw("person create rejected with org link, retrying without it",
				"name", in.Name, "org_id", in.OrgID, "error", apiErr.Message)
			retryBody := c.personBody(in, false)
			if c.ownerID > 0 {
				retryBody["owner_id"] = c.ownerID
			}
			env, err = c.do(ctx, http.MethodPost, "persons", nil, retryBody)
		}
		if err != nil {
			return nil, err
		}
	}

	var p Person
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode created person: %w", err)
	}
	return &p, nil
}

// UpdatePerson patches only the provided fields.
func (c *Client) UpdatePerson(ctx context.Context, id int, in PersonInput) error {
	body := c.personBody(in, true)
	if len(body) == 0 {
		return nil
	}
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("persons/%d", id), nil, body)
	return err
}

func (c *Client) GetPerson(ctx context.Context, id int) (*Person, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("persons/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	var p Person
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode person %d: %w", id, err)
	}
	return &p, nil
}

func (c *Client) DeletePerson(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("persons/%d", id), nil, nil)
	return err
}

type searchItems struct {
	Items []struct {
		Item json.RawMessage `json:"item"`
	} `json:"items"`
}

func (c *Client) searchPersons(ctx context.Context, term string, byCustomFields bool) ([]Person, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("exact_match", "false")
	if byCustomFields {
		q.Set("fields", "custom_fields")
	}

	env, err := c.do(ctx, http.MethodGet, "persons/search", q, nil)
	if err != nil {
		return nil, err
	}

	var res searchItems
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode person search: %w", err)
	}

	persons := make([]Person, 0, len(res.Items))
	for _, item := range res.Items {
		var p Person
		if err := json.Unmarshal(item.Item, &p); err != nil {
			continue
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// SearchPersonByDocument looks a person up by CPF/CNPJ, trying every
// known variant of the document. When the custom-field search rejects
// the term it falls back to a general search and verifies the document
// field on each hit.
func (c *Client) SearchPersonByDocument(ctx context.Context, doc string) (*Person, error) {
	variants := document.Variants(doc)
	docField := c.fields.PersonField("CPF")

	for _, variant := range variants {
		persons, err := c.searchPersons(ctx, variant, true)
		if err != nil {
			if isSearchRejected(err) {
				return c.searchPersonFallback(ctx, variants, docField)
			}
			return nil, err
		}
		if len(persons) > 0 {
			return &persons[0], nil
		}
	}
	return nil, nil
}

func (c *Client) searchPersonFallback(ctx context.Context, variants []string, docField string) (*Person, error) {
	want := make(map[string]bool, len(variants))
	for _, v := range variants {
		want[document.Clean(v)] = true
	}

	for _, variant := range variants {
		persons, err := c.searchPersons(ctx, variant, false)
		if err != nil {
			continue
		}
		for i := range persons {
			raw, ok := persons[i].CustomFields[docField]
			if !ok {
				continue
			}
			if want[document.Clean(fmt.Sprint(raw))] {
				return &persons[i], nil
			}
		}
	}
	return nil, nil
}
