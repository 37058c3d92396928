package service

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().\-]{5,20}$`)

// normalizeSections checks a form layout and assigns ids to sections and
// fields that have none. Field ids must be unique across the whole form.
func normalizeSections(sections []models.Section) ([]models.Section, error) {
	ve := &ValidationError{}
	seen := map[string]bool{}

	checkFields := func(path string, fields []models.Field) {
		for i := range fields {
			f := &fields[i]
			fpath := fmt.Sprintf("%s.fields[%d]", path, i)
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			if seen[f.ID] {
				ve.add(fpath+".id", fmt.Sprintf("duplicate field id %q", f.ID))
			}
			seen[f.ID] = true
			checkField(ve, fpath, f)

			subSeen := map[string]bool{}
			for j := range f.SubFields {
				sf := &f.SubFields[j]
				spath := fmt.Sprintf("%s.subFields[%d]", fpath, j)
				if sf.ID == "" {
					sf.ID = uuid.NewString()
				}
				if subSeen[sf.ID] {
					ve.add(spath+".id", fmt.Sprintf("duplicate sub-field id %q", sf.ID))
				}
				subSeen[sf.ID] = true
				if len(sf.SubFields) > 0 {
					ve.add(spath, "sub-fields cannot have sub-fields")
				}
				checkField(ve, spath, sf)
			}
		}
	}

	out := make([]models.Section, len(sections))
	copy(out, sections)
	for i := range out {
		s := &out[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		path := fmt.Sprintf("sections[%d]", i)
		checkFields(path, s.Fields)
		for j := range s.Subsections {
			sub := &s.Subsections[j]
			if sub.ID == "" {
				sub.ID = uuid.NewString()
			}
			checkFields(fmt.Sprintf("%s.subsections[%d]", path, j), sub.Fields)
		}
	}
	return out, ve.err()
}

func checkField(ve *ValidationError, path string, f *models.Field) {
	if strings.TrimSpace(f.Label) == "" {
		ve.add(path+".label", "required")
	}
	if len(f.SubFields) > 0 {
		// A group field only collects records; its own type is informative.
		if f.Type == "" {
			f.Type = models.FieldText
		}
	}
	if !f.Type.Valid() {
		ve.add(path+".type", fmt.Sprintf("unknown field type %q", f.Type))
		return
	}
	if f.Type.HasOptions() {
		if len(f.Options) == 0 {
			ve.add(path+".options", "choice fields need options")
		}
		opts := map[string]bool{}
		for _, o := range f.Options {
			if strings.TrimSpace(o) == "" || opts[o] {
				ve.add(path+".options", "options must be unique and non-empty")
				break
			}
			opts[o] = true
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		ve.add(path+".min", "min is greater than max")
	}
}

// ValidateAnswers checks answers against a form layout. With partial set,
// missing required answers are allowed; everything given must still be
// well-formed. All problems are reported at once.
func ValidateAnswers(sections []models.Section, answers models.Answers, partial bool) error {
	ve := &ValidationError{}
	fields := models.FlattenFields(sections)
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}
	for id := range answers {
		if !known[id] {
			ve.add(id, "unknown field")
		}
	}
	for _, f := range fields {
		checkAnswer(ve, f.ID, f, answers[f.ID], partial)
	}
	return ve.err()
}

func checkAnswer(ve *ValidationError, path string, f models.Field, a models.Answer, partial bool) {
	if a.IsEmpty() {
		if f.Required && !partial {
			ve.add(path, "required")
		}
		return
	}

	if len(f.SubFields) > 0 {
		if a.Kind != models.AnswerRecords {
			ve.add(path, "expects a list of entries")
			return
		}
		subs := make(map[string]models.Field, len(f.SubFields))
		for _, sf := range f.SubFields {
			subs[sf.ID] = sf
		}
		for i, rec := range a.Records {
			rpath := fmt.Sprintf("%s[%d]", path, i)
			for k := range rec {
				if _, ok := subs[k]; !ok {
					ve.add(rpath+"."+k, "unknown field")
				}
			}
			for _, sf := range f.SubFields {
				checkAnswer(ve, rpath+"."+sf.ID, sf, recordValue(rec[sf.ID]), partial)
			}
		}
		return
	}

	if f.Multiple || f.Type == models.FieldCheckbox {
		if a.Kind != models.AnswerList {
			ve.add(path, "expects a list")
			return
		}
		for i, v := range a.List {
			if msg := checkScalar(f, v); msg != "" {
				ve.add(fmt.Sprintf("%s[%d]", path, i), msg)
			}
		}
		return
	}

	if a.Kind != models.AnswerScalar {
		ve.add(path, "expects a single value")
		return
	}
	if msg := checkScalar(f, a.Scalar); msg != "" {
		ve.add(path, msg)
	}
}

func recordValue(v any) models.Answer {
	switch x := v.(type) {
	case nil:
		return models.Answer{}
	case []any:
		return models.ListOf(x...)
	}
	return models.Answer{Kind: models.AnswerScalar, Scalar: v}
}

// checkScalar returns a problem description, or "" when v fits f.
func checkScalar(f models.Field, v any) string {
	s, isString := v.(string)
	switch f.Type {
	case models.FieldNumber, models.FieldRating:
		n, ok := models.Answer{Kind: models.AnswerScalar, Scalar: v}.Float()
		if !ok {
			return "must be a number"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("must be at least %g", *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("must be at most %g", *f.Max)
		}
		return ""
	}

	if !isString {
		return "must be text"
	}
	s = strings.TrimSpace(s)
	switch f.Type {
	case models.FieldEmail:
		if validate.Var(s, "email") != nil {
			return "must be a valid email address"
		}
	case models.FieldURL:
		if validate.Var(s, "url") != nil {
			return "must be a valid URL"
		}
	case models.FieldDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return "must be a date (YYYY-MM-DD)"
			}
		}
	case models.FieldPhone:
		if !phonePattern.MatchString(s) {
			return "must be a phone number"
		}
	case models.FieldSelect, models.FieldRadio, models.FieldCheckbox:
		for _, o := range f.Options {
			if o == s {
				return ""
			}
		}
		return "must be one of the options"
	}
	return ""
}

// validateGeneralInfo checks the identity block against the form toggles.
func validateGeneralInfo(ve *ValidationError, cfg models.GeneralInfoConfig, gi models.GeneralInfo) {
	for _, key := range models.GeneralInfoKeys {
		t := cfg.Toggle(key)
		val := strings.TrimSpace(gi.Value(key))
		if t.Enabled && t.Required && val == "" {
			ve.add("generalInfo."+key, "required")
		}
	}
	if gi.Email != "" && validate.Var(strings.TrimSpace(gi.Email), "email") != nil {
		ve.add("generalInfo.email", "must be a valid email address")
	}
}

// numericScore is the mean of the numeric answers of a form, or nil when
// the form has none answered.
func numericScore(sections []models.Section, answers models.Answers) *float64 {
	var sum float64
	var n int
	for _, f := range models.FlattenFields(sections) {
		if !f.Type.Numeric() || len(f.SubFields) > 0 {
			continue
		}
		if v, ok := answers[f.ID].Float(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	score := sum / float64(n)
	return &score
}

// validateStruct runs struct tag validation and reports field errors in the
// same shape as the answer checks.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.add(fe.Field(), fe.Tag())
	}
	return ve
}
