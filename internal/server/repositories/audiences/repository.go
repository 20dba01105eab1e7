// Package audiences persists registered token audiences.
package audiences

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	FindByToken(ctx context.Context, token string) (*models.Audience, error)
	Create(ctx context.Context, a *models.Audience) (*models.Audience, error)
	List(ctx context.Context) ([]models.Audience, error)
}
