package service

import (
	"context"
	"time"

	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/repository"
)

type EntityService struct {
	repo *repository.EntityRepository
}

func NewEntityService(repo *repository.EntityRepository) *EntityService {
	return &EntityService{repo: repo}
}

// List filters the audit entities; empty arguments match everything.
func (s *EntityService) List(ctx context.Context, document, personType, status string, updatedAfter *time.Time) ([]domain.Entity, error) {
	var f repository.EntitiesFilter
	if document != "" {
		f.Document = &document
	}
	if personType != "" {
		f.PersonType = &personType
	}
	if status != "" {
		f.Status = &status
	}
	f.UpdatedAfter = updatedAfter
	return s.repo.List(ctx, f)
}

func (s *EntityService) Stats(ctx context.Context) (domain.EntityStats, error) {
	return s.repo.Stats(ctx)
}

func (s *EntityService) History(ctx context.Context, entityID int64) ([]domain.ChangeRecord, error) {
	return s.repo.History(ctx, entityID)
}
