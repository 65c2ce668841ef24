package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/services"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	FullName    *string `json:"full_name"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Password    *string `json:"password"`
}

type getAccountRequest struct {
	ID int64 `json:"id"`
}

type listAccountsRequest struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
}

type updateAccountRequest struct {
	ID int64 `json:"id"`
	updateMeRequest
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles"`
}

type accountListResponse struct {
	Accounts []accountResponse `json:"accounts"`
	Total    int64             `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   string `json:"expires_at"`
}

type accountResponse struct {
	ID          int64    `json:"id,omitempty"`
	Persisted   bool     `json:"persisted"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Address     string   `json:"address,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	IsActive    bool     `json:"is_active"`
	LastLogin   string   `json:"last_login,omitempty"`
	Roles       []string `json:"roles"`
}

type profileMessage struct {
	FullName          string              `json:"full_name"`
	Age               int                 `json:"age"`
	Address           string              `json:"address"`
	Phone             string              `json:"phone"`
	EmergencyContact  string              `json:"emergency_contact"`
	MedicalConditions []string            `json:"medical_conditions"`
	Medications       []models.Medication `json:"medications"`
	Allergies         []string            `json:"allergies"`
	Hobbies           []string            `json:"hobbies"`
	ImportantDates    []string            `json:"important_dates"`
	DailyRoutine      string              `json:"daily_routine"`
}

// decode copies a Struct document into a request DTO. Type mismatches are
// validation errors.
func decode(in *structpb.Struct, dst any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

func encode(src any) (*structpb.Struct, error) {
	b, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dates travel as RFC 3339 timestamps; a plain YYYY-MM-DD is accepted too.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", common.ErrorValidation, s)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (r registerRequest) toRegistration() (services.Registration, error) {
	dob, err := parseTime(r.DateOfBirth)
	if err != nil {
		return services.Registration{}, err
	}
	return services.Registration{
		Username:    r.Username,
		Email:       r.Email,
		Password:    r.Password,
		FullName:    r.FullName,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		Address:     r.Address,
		Gender:      r.Gender,
		DateOfBirth: dob,
	}, nil
}

func (r updateMeRequest) toUpdate() (services.AccountUpdate, error) {
	upd := services.AccountUpdate{
		FullName:  r.FullName,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address,
		Gender:    r.Gender,
		Password:  r.Password,
	}
	if r.DateOfBirth != nil {
		dob, err := parseTime(*r.DateOfBirth)
		if err != nil {
			return services.AccountUpdate{}, err
		}
		upd.DateOfBirth = &dob
	}
	return upd, nil
}

func (r updateAccountRequest) toAdminUpdate() (services.AccountAdminUpdate, error) {
	upd, err := r.updateMeRequest.toUpdate()
	if err != nil {
		return services.AccountAdminUpdate{}, err
	}
	return services.AccountAdminUpdate{AccountUpdate: upd, Active: r.IsActive, Roles: r.Roles}, nil
}

func accountListFromPage(p *services.AccountPage) accountListResponse {
	out := accountListResponse{
		Accounts: make([]accountResponse, 0, len(p.Accounts)),
		Total:    p.Total,
		Offset:   p.Offset,
		Limit:    p.Limit,
	}
	for _, a := range p.Accounts {
		out.Accounts = append(out.Accounts, accountFromModel(a))
	}
	return out
}

func accountFromModel(a *models.Account) accountResponse {
	roles := a.Roles
	if roles == nil {
		roles = []string{}
	}
	return accountResponse{
		ID:          a.ID,
		Persisted:   true,
		Username:    a.Username,
		Email:       a.Email,
		FullName:    a.FullName,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Phone:       a.Phone,
		Address:     a.Address,
		Gender:      a.Gender,
		DateOfBirth: formatTime(a.DateOfBirth),
		IsActive:    a.Active,
		LastLogin:   formatTime(a.LastLogin),
		Roles:       roles,
	}
}

func accountFromResolved(acc identity.ResolvedAccount) accountResponse {
	if p, ok := acc.(*identity.PersistedAccount); ok {
		return accountFromModel(p.Account())
	}
	return accountResponse{
		Username: acc.Username(),
		Email:    acc.Email(),
		FullName: acc.FullName(),
		IsActive: true,
		Roles:    acc.Roles(),
	}
}

func sessionFromService(s *services.Session) sessionResponse {
	return sessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		ExpiresIn:   int64(s.ExpiresIn / time.Second),
		ExpiresAt:   formatTime(s.ExpiresAt),
	}
}

func profileFromModel(p *models.Profile) profileMessage {
	return profileMessage{
		FullName:          p.FullName,
		Age:               p.Age,
		Address:           p.Address,
		Phone:             p.Phone,
		EmergencyContact:  p.EmergencyContact,
		MedicalConditions: nonNil(p.MedicalConditions),
		Medications:       nonNil(p.Medications),
		Allergies:         nonNil(p.Allergies),
		Hobbies:           nonNil(p.Hobbies),
		ImportantDates:    nonNil(p.ImportantDates),
		DailyRoutine:      p.DailyRoutine,
	}
}

func (m profileMessage) toModel() *models.Profile {
	return &models.Profile{
		FullName:          m.FullName,
		Age:               m.Age,
		Address:           m.Address,
		Phone:             m.Phone,
		EmergencyContact:  m.EmergencyContact,
		MedicalConditions: nonNil(m.MedicalConditions),
		Medications:       nonNil(m.Medications),
		Allergies:         nonNil(m.Allergies),
		Hobbies:           nonNil(m.Hobbies),
		ImportantDates:    nonNil(m.ImportantDates),
		DailyRoutine:      m.DailyRoutine,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
