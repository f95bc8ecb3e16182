package appointmenttype

import "context"

type Service interface {
	GetByID(ctx context.Context, id string) (*AppointmentType, error)

	// GetForBusiness returns the type only if it belongs to the business and
	// is active; the ownership check keeps one tenant's widget from booking
	// against another tenant's types.
	GetForBusiness(ctx context.Context, businessID, id string) (*AppointmentType, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*AppointmentType, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetForBusiness(ctx context.Context, businessID, id string) (*AppointmentType, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.BusinessID != businessID {
		return nil, ErrNotFound
	}
	if !t.Active {
		return nil, ErrInactive
	}
	return t, nil
}
