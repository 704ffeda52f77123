package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
)

var (
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldNotes   = "notes"
	FieldAddress = "address"
)

// Form is the customer contact step.
type Form struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Notes   string `json:"notes"`
	Address string `json:"address"`
}

func (f Form) Customer() models.Customer {
	return models.Customer{
		Name:    strings.TrimSpace(f.Name),
		Phone:   strings.TrimSpace(f.Phone),
		Email:   f.Email,
		Notes:   f.Notes,
		Address: f.Address,
	}
}

func (f *Form) set(field, value string) error {
	switch field {
	case FieldName:
		f.Name = value
	case FieldPhone:
		f.Phone = value
	case FieldEmail:
		f.Email = value
	case FieldNotes:
		f.Notes = value
	case FieldAddress:
		f.Address = value
	default:
		return fmt.Errorf("unknown checkout field %q", field)
	}
	return nil
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "invalid checkout details: " + strings.Join(parts, "; ")
}

// Validate checks the contact fields. It returns nil when the form is
// acceptable.
func (f Form) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = "Name is required"
	}
	phone := strings.TrimSpace(f.Phone)
	switch {
	case phone == "":
		errs[FieldPhone] = "Phone number is required"
	case !phonePattern.MatchString(phone):
		errs[FieldPhone] = "Enter a valid 10-digit phone number"
	}
	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		errs[FieldEmail] = "Enter a valid email address"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
