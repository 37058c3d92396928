package models

import (
	"time"

	"github.com/uptrace/bun"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldURL      FieldType = "url"
	FieldPhone    FieldType = "phone"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
	FieldRating   FieldType = "rating"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldEmail, FieldNumber, FieldDate, FieldURL,
		FieldPhone, FieldSelect, FieldRadio, FieldCheckbox, FieldFile, FieldRating:
		return true
	}
	return false
}

// HasOptions reports whether answers must be picked from Field.Options.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

// Numeric reports whether answers count towards a review score.
func (t FieldType) Numeric() bool {
	return t == FieldNumber || t == FieldRating
}

// Field is one input of a form. A field with SubFields collects an array of
// objects keyed by sub-field id; sub-fields never nest further.
type Field struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Multiple    bool      `json:"multiple,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	SubFields   []Field   `json:"subFields,omitempty"`
}

type Subsection struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []Field      `json:"fields"`
	Subsections []Subsection `json:"subsections,omitempty"`
}

// FlattenFields lists fields in display order: each section's own fields,
// then the fields of its subsections.
func FlattenFields(sections []Section) []Field {
	var out []Field
	for _, s := range sections {
		out = append(out, s.Fields...)
		for _, sub := range s.Subsections {
			out = append(out, sub.Fields...)
		}
	}
	return out
}

type InfoToggle struct {
	Enabled  bool `json:"enabled"`
	Required bool `json:"required,omitempty"`
}

// GeneralInfoConfig selects which identity fields a registration form
// collects.
type GeneralInfoConfig struct {
	Title       InfoToggle `json:"title"`
	FirstName   InfoToggle `json:"firstName"`
	LastName    InfoToggle `json:"lastName"`
	Email       InfoToggle `json:"email"`
	Phone       InfoToggle `json:"phone"`
	Affiliation InfoToggle `json:"affiliation"`
	Country     InfoToggle `json:"country"`
	Position    InfoToggle `json:"position"`
}

// Toggle returns the toggle for a general info key (see GeneralInfoKeys).
func (c GeneralInfoConfig) Toggle(key string) InfoToggle {
	switch key {
	case "title":
		return c.Title
	case "firstName":
		return c.FirstName
	case "lastName":
		return c.LastName
	case "email":
		return c.Email
	case "phone":
		return c.Phone
	case "affiliation":
		return c.Affiliation
	case "country":
		return c.Country
	case "position":
		return c.Position
	}
	return InfoToggle{}
}

// DefaultGeneralInfo collects names and email, all required.
func DefaultGeneralInfo() GeneralInfoConfig {
	return GeneralInfoConfig{
		FirstName:   InfoToggle{Enabled: true, Required: true},
		LastName:    InfoToggle{Enabled: true, Required: true},
		Email:       InfoToggle{Enabled: true, Required: true},
		Affiliation: InfoToggle{Enabled: true},
	}
}

type RegistrationForm struct {
	bun.BaseModel `bun:"table:registration_forms"`

	ID          string            `bun:"id,pk" json:"id"`
	EventID     string            `bun:"event_id,notnull" json:"eventId"`
	Title       string            `bun:"title,notnull" json:"title"`
	Description string            `bun:"description" json:"description,omitempty"`
	GeneralInfo GeneralInfoConfig `bun:"general_info" json:"generalInfo"`
	Sections    []Section         `bun:"sections" json:"sections"`
	CreatedBy   string            `bun:"created_by" json:"createdBy"`
	CreatedAt   time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

type EvaluationForm struct {
	bun.BaseModel `bun:"table:evaluation_forms"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull" json:"eventId"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	Sections    []Section `bun:"sections" json:"sections"`
	CreatedBy   string    `bun:"created_by" json:"createdBy"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
