package models

// Medication is one entry of a profile's medication list.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// Profile holds extended, mostly medical, details of an account. All list
// fields are stored as JSON text columns.
type Profile struct {
	ID                int64
	UserID            int64
	FullName          string
	Age               int
	Address           string
	Phone             string
	EmergencyContact  string
	MedicalConditions []string
	Medications       []Medication
	Allergies         []string
	Hobbies           []string
	ImportantDates    []string
	DailyRoutine      string
}

func (p *Profile) Key() int64 { return p.ID }

func (p *Profile) SetKey(id int64) { p.ID = id }
