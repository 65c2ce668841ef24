package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lifelog/internal/codec"
	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

type SQLRepository struct {
	db  dbx.DBTX
	seq *keys.Sequencer
}

func NewSQLRepository(db dbx.DBTX, seq *keys.Sequencer) *SQLRepository {
	return &SQLRepository{db: db, seq: seq}
}

func (r *SQLRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query :=
		`SELECT id, user_id, full_name, age, address, phone, emergency_contact, medical_conditions,
		     medications, allergies, hobbies, important_dates, daily_routine
		 FROM user_profiles
		 WHERE user_id = $1`

	var p models.Profile
	var fullName, address, phone, emergency, routine sql.NullString
	var age sql.NullInt64
	var conditions, allergies, hobbies, dates codec.JSONList[string]
	var medications codec.JSONList[models.Medication]

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.UserID, &fullName, &age, &address, &phone,
		&emergency, &conditions, &medications, &allergies, &hobbies, &dates, &routine)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.FullName = fullName.String
	p.Age = int(age.Int64)
	p.Address = address.String
	p.Phone = phone.String
	p.EmergencyContact = emergency.String
	p.MedicalConditions = conditions
	p.Medications = medications
	p.Allergies = allergies
	p.Hobbies = hobbies
	p.ImportantDates = dates
	p.DailyRoutine = routine.String

	return &p, nil
}

func (r *SQLRepository) Save(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	update :=
		`UPDATE user_profiles SET full_name = $1, age = $2, address = $3, phone = $4,
		     emergency_contact = $5, medical_conditions = $6, medications = $7, allergies = $8,
		     hobbies = $9, important_dates = $10, daily_routine = $11
		 WHERE user_id = $12`

	res, err := r.db.ExecContext(ctx, update,
		p.FullName, p.Age, p.Address, p.Phone, p.EmergencyContact,
		codec.JSONList[string](p.MedicalConditions), codec.JSONList[models.Medication](p.Medications),
		codec.JSONList[string](p.Allergies), codec.JSONList[string](p.Hobbies),
		codec.JSONList[string](p.ImportantDates), p.DailyRoutine, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return r.GetByUserID(ctx, p.UserID)
	}

	if err := r.seq.Assign(ctx, r.db, keys.TableProfiles, p); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	insert :=
		`INSERT INTO user_profiles (id, user_id, full_name, age, address, phone, emergency_contact,
		     medical_conditions, medications, allergies, hobbies, important_dates, daily_routine)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, insert,
		p.ID, p.UserID, p.FullName, p.Age, p.Address, p.Phone, p.EmergencyContact,
		codec.JSONList[string](p.MedicalConditions), codec.JSONList[models.Medication](p.Medications),
		codec.JSONList[string](p.Allergies), codec.JSONList[string](p.Hobbies),
		codec.JSONList[string](p.ImportantDates), p.DailyRoutine)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.GetByUserID(ctx, p.UserID)
}
