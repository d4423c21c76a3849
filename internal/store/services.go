package store

import (
	"context"

	"agendaki/internal/domain"
)

// ServiceRepository reads the bookable service catalog. The catalog is
// maintained by administrative setup and read-only here.
type ServiceRepository interface {
	List(ctx context.Context) ([]domain.Service, error)
	GetByID(ctx context.Context, id int64) (domain.Service, error)
}
