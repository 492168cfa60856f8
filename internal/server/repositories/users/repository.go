package users

import (
	"context"

	"github.com/dmitrijs2005/appauth/internal/server/models"
)

type Repository interface {
	// Create stores user as given. An unknown ApplicationID yields
	// common.ErrorNotFound, a taken (application, username) pair
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByApplicationAndUsername(ctx context.Context, appID, username string) (*models.User, error)
	// GetByUsername looks across all applications and fails with
	// common.ErrorAmbiguous when more than one matches.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ListByApplication returns the users of appID in insertion order.
	ListByApplication(ctx context.Context, appID string) ([]models.User, error)
}

const userColumns = "id, username, email, password, created_at, updated_at, application_id"
