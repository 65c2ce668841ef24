package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/repomanager"
)

// ProfileService reads and writes the extended profile of an account.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return p, nil
}

// Save stores p as the profile of userID, creating it on first use.
func (s *ProfileService) Save(ctx context.Context, userID int64, p *models.Profile) (*models.Profile, error) {
	if p.Age < 0 {
		return nil, common.ErrorValidation
	}
	p.UserID = userID

	var saved *models.Profile
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		saved, err = s.repomanager.Profiles(tx).Save(ctx, p)
		return err
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return saved, nil
}
