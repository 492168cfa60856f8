package applications

import (
	"context"

	"github.com/dmitrijs2005/appauth/internal/server/models"
)

type Repository interface {
	// Create stores app. app.ID must already be set.
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	// List returns every application in insertion order.
	List(ctx context.Context) ([]models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
}
