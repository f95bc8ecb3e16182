package business

import (
	"context"
	"strings"
)

// UpsertRequest carries identity-provider state for webhook-driven sync.
// The upsert is keyed on ExternalID, so replaying the same event is a no-op.
type UpsertRequest struct {
	ExternalID string
	Name       string
	Email      string
	Timezone   string
}

type Service interface {
	GetByID(ctx context.Context, id string) (*Business, error)

	// GetByWidgetID resolves a widget to its owning business. Inactive
	// businesses are hidden from the public widget surface.
	GetByWidgetID(ctx context.Context, widgetID string) (*Business, error)

	// Webhook-driven mutations. All are idempotent upserts.
	UpsertFromIdentity(ctx context.Context, req UpsertRequest) (*Business, error)
	SetTier(ctx context.Context, externalID, tier string) error
	SetActive(ctx context.Context, externalID string, active bool) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Business, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByWidgetID(ctx context.Context, widgetID string) (*Business, error) {
	b, err := s.repo.GetByWidgetID(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, ErrInactive
	}
	return b, nil
}

func (s *service) UpsertFromIdentity(ctx context.Context, req UpsertRequest) (*Business, error) {
	if strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, ErrNotFound
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	return s.repo.UpsertByExternalID(ctx, req)
}

func (s *service) SetTier(ctx context.Context, externalID, tier string) error {
	return s.repo.SetTier(ctx, externalID, tier)
}

func (s *service) SetActive(ctx context.Context, externalID string, active bool) error {
	return s.repo.SetActive(ctx, externalID, active)
}
