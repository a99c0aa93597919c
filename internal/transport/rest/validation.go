package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"pipedrive-sync/internal/repository"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SyncRequest starts a run. File is optional: empty means the newest
// remittance in the input folder.
type SyncRequest struct {
	File string `json:"file"`
}

func ValidateSyncRequest(r *http.Request) (*SyncRequest, error) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, &ValidationError{Field: "body", Message: "request body must be JSON"}
	}
	req.File = strings.TrimSpace(req.File)
	if strings.Contains(req.File, "..") {
		return nil, &ValidationError{Field: "file", Message: "file must not contain path traversal"}
	}
	return &req, nil
}

// ExportRequest selects columns and filters for an entity export.
type ExportRequest struct {
	Fields     []string `json:"fields"`
	Document   string   `json:"document"`
	PersonType string   `json:"person_type"`
	Status     string   `json:"status"`
}

func ValidateExportRequest(r *http.Request) (*ExportRequest, error) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, &ValidationError{Field: "body", Message: "request body must be JSON"}
	}

	req.PersonType = strings.ToUpper(strings.TrimSpace(req.PersonType))
	if req.PersonType != "" && req.PersonType != "PF" && req.PersonType != "PJ" {
		return nil, &ValidationError{Field: "person_type", Message: "person_type must be PF or PJ"}
	}

	return &req, nil
}

func (r *ExportRequest) ToEntitiesFilter() repository.EntitiesFilter {
	var f repository.EntitiesFilter
	if doc := strings.TrimSpace(r.Document); doc != "" {
		f.Document = &doc
	}
	if r.PersonType != "" {
		t := r.PersonType
		f.PersonType = &t
	}
	if status := strings.TrimSpace(r.Status); status != "" {
		f.Status = &status
	}
	return f
}
