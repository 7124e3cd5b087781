// Package users stores identity records. Email and username uniqueness is
// enforced by every implementation and reported as
// common.ErrDuplicateEmail or common.ErrDuplicateUsername.
package users

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// List returns every user in insertion order.
	List(ctx context.Context) ([]*models.User, error)
}
