// Package profiles stores the extended per-account profile in user_profiles.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	// Save updates the profile of p.UserID or inserts it when there is none.
	Save(ctx context.Context, p *models.Profile) (*models.Profile, error)
}
