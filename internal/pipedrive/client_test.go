package pipedrive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProfile = RateProfile{
	Name:          "test",
	Delay:         0,
	MaxRetries:    2,
	BaseBackoff:   time.Millisecond,
	MaxBackoff:    5 * time.Millisecond,
	RetryAfter429: []time.Duration{time.Millisecond, time.Millisecond},
	Cooldown:      0,
	MaxConcurrent: 1,
	BatchSize:     10,
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Options{Token: "test-token", BaseURL: srv.URL, Profile: "default", OwnerID: 42})
	c.profile = testProfile
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestEndpointVersion(t *testing.T) {
	assert.Equal(t, "v2", endpointVersion("deals"))
	assert.Equal(t, "v2", endpointVersion("persons/search"))
	assert.Equal(t, "v2", endpointVersion("persons/7"))
	assert.Equal(t, "v2", endpointVersion("pipelines"))
	assert.Equal(t, "v1", endpointVersion("dealFields"))
	assert.Equal(t, "v1", endpointVersion("personFields"))
	assert.Equal(t, "v1", endpointVersion("users/me"))
}

func TestSearchPersonByDocumentTriesVariants(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/persons/search", r.URL.Path)
		require.Equal(t, "test-token", r.URL.Query().Get("api_token"))

		term := r.URL.Query().Get("term")
		if term == "123456789" {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"items": []map[string]any{
						{"item": map[string]any{"id": 7, "name": "JOAO DA SILVA"}},
					},
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"items": []any{}},
		})
	})

	p, err := c.SearchPersonByDocument(context.Background(), "00123456789")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "JOAO DA SILVA", p.Name)
}

func TestSearchPersonByDocumentNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"items": []any{}},
		})
	})

	p, err := c.SearchPersonByDocument(context.Background(), "00123456789")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSearchPersonFallbackVerifiesDocument(t *testing.T) {
	cpfField := DefaultFieldMap().PersonField("CPF")

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") == "custom_fields" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Search term not allowed",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"items": []map[string]any{
					{"item": map[string]any{
						"id": 3, "name": "OUTRA PESSOA",
						"custom_fields": map[string]any{cpfField: "99999999999"},
					}},
					{"item": map[string]any{
						"id": 5, "name": "JOAO DA SILVA",
						"custom_fields": map[string]any{cpfField: "123.456.789-09"},
					}},
				},
			},
		})
	})

	p, err := c.SearchPersonByDocument(context.Background(), "12345678909")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 5, p.ID)
}

func TestCreatePersonRetriesWithoutOrg(t *testing.T) {
	var bodies []map[string]any

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/persons", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		if _, hasOrg := body["org_id"]; hasOrg {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "org_id is invalid",
			})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    map[string]any{"id": 9, "name": body["name"]},
		})
	})

	p, err := c.CreatePerson(context.Background(), PersonInput{
		Name:   "EMPRESA LTDA",
		OrgID:  777,
		Phones: []string{"(92) 999887766"},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, p.ID)

	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "org_id")
	assert.NotContains(t, bodies[1], "org_id")
	assert.Equal(t, float64(42), bodies[1]["owner_id"])
}

func TestV1PaginationWalksAllPages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/dealFields", r.URL.Path)

		if r.URL.Query().Get("start") == "0" {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": []map[string]any{
					{"id": 1, "key": "aaa", "name": "Campo A", "field_type": "varchar"},
				},
				"additional_data": map[string]any{
					"pagination": map[string]any{
						"more_items_in_collection": true,
						"next_start":               500,
					},
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": 2, "key": "bbb", "name": "Campo B", "field_type": "monetary"},
			},
			"additional_data": map[string]any{
				"pagination": map[string]any{"more_items_in_collection": false},
			},
		})
	})

	fields, err := c.DealFields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Campo A", fields[0].Name)
	assert.Equal(t, "bbb", fields[1].Key)
}

func TestV2CursorPaginationWalksAllPages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/deals", r.URL.Path)
		require.Equal(t, "14", r.URL.Query().Get("pipeline_id"))

		if r.URL.Query().Get("cursor") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": []map[string]any{
					{"id": 1, "title": "12345678901 - JOAO", "pipeline_id": 14, "stage_id": 110, "status": "open"},
				},
				"additional_data": map[string]any{"next_cursor": "page2"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": 2, "title": "98765432100 - MARIA", "pipeline_id": 14, "stage_id": 115, "status": "lost"},
			},
			"additional_data": map[string]any{},
		})
	})

	deals, err := c.DealsByPipeline(context.Background(), 14)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "open", deals[0].Status)
	assert.Equal(t, 115, deals[1].StageID)
}

func TestRetryAfter429(t *testing.T) {
	var calls int32

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": 1, "name": "Operador", "email": "op@example.com"},
		})
	})

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Operador", u.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAPIErrorSurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Deal not found",
		})
	})

	err := c.UpdateDeal(context.Background(), 999, DealUpdate{Status: strPtr("open")})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Deal not found")
}

func strPtr(s string) *string { return &s }

func TestFieldMapValidate(t *testing.T) {
	m := DefaultFieldMap()
	require.NoError(t, m.Validate())

	m.Deal["NOVO_CAMPO"] = placeholderFieldID
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOVO_CAMPO")
}
