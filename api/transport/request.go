package transport

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/password"
)

// FormLookup reads a single form field and reports whether it was sent.
type FormLookup func(key string) (string, bool)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PhoneNumber          string `json:"phone_number"`
	Institution          string `json:"institution"`
	PositionTitle        string `json:"position_title"`
	Country              string `json:"country"`
	EditorBio            string `json:"editor_bio"`
	ORCIDID              string `json:"orcid_id"`
	LinkedInProfile      string `json:"linkedin_profile"`
	GoogleScholarProfile string `json:"google_scholar_profile"`
	ScopusID             string `json:"scopus_id"`
	WebOfScienceID       string `json:"web_of_science_id"`
}

func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(password.MaxBytes))),
		validation.Field(&r.PhoneNumber, validation.Length(0, 20)),
		validation.Field(&r.Institution, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.PositionTitle, validation.Length(0, 255)),
		validation.Field(&r.Country, validation.Length(0, 100)),
		validation.Field(&r.ORCIDID, validation.Length(0, 50)),
		validation.Field(&r.LinkedInProfile, validation.Length(0, 200), is.URL),
		validation.Field(&r.GoogleScholarProfile, validation.Length(0, 200), is.URL),
		validation.Field(&r.ScopusID, validation.Length(0, 100)),
		validation.Field(&r.WebOfScienceID, validation.Length(0, 100)),
	)
}

// maxBytes limits the encoded length of a string. Length counts runes.
func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > limit {
			return fmt.Errorf("the length must be no more than %d bytes", limit)
		}
		return nil
	}
}

// BindForm fills the request from multipart or urlencoded fields.
func (r *SignUpRequest) BindForm(lookup FormLookup) {
	for key, dst := range map[string]*string{
		"first_name":             &r.FirstName,
		"last_name":              &r.LastName,
		"email":                  &r.Email,
		"password":               &r.Password,
		"phone_number":           &r.PhoneNumber,
		"institution":            &r.Institution,
		"position_title":         &r.PositionTitle,
		"country":                &r.Country,
		"editor_bio":             &r.EditorBio,
		"orcid_id":               &r.ORCIDID,
		"linkedin_profile":       &r.LinkedInProfile,
		"google_scholar_profile": &r.GoogleScholarProfile,
		"scopus_id":              &r.ScopusID,
		"web_of_science_id":      &r.WebOfScienceID,
	} {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
}

// Profile returns the metadata part of the registration.
func (r SignUpRequest) Profile() domain.EditorProfile {
	return domain.EditorProfile{
		PhoneNumber:          strings.TrimSpace(r.PhoneNumber),
		Institution:          strings.TrimSpace(r.Institution),
		PositionTitle:        strings.TrimSpace(r.PositionTitle),
		Country:              strings.TrimSpace(r.Country),
		EditorBio:            r.EditorBio,
		ORCIDID:              strings.TrimSpace(r.ORCIDID),
		LinkedInProfile:      strings.TrimSpace(r.LinkedInProfile),
		GoogleScholarProfile: strings.TrimSpace(r.GoogleScholarProfile),
		ScopusID:             strings.TrimSpace(r.ScopusID),
		WebOfScienceID:       strings.TrimSpace(r.WebOfScienceID),
	}
}

// ProfileUpdateRequest is the update surface. Absent fields stay untouched; file
// fields arrive as multipart parts and are not part of the JSON body.
type ProfileUpdateRequest struct {
	PhoneNumber          *string `json:"phone_number"`
	Institution          *string `json:"institution"`
	PositionTitle        *string `json:"position_title"`
	Country              *string `json:"country"`
	EditorBio            *string `json:"editor_bio"`
	ORCIDID              *string `json:"orcid_id"`
	LinkedInProfile      *string `json:"linkedin_profile"`
	GoogleScholarProfile *string `json:"google_scholar_profile"`
	ScopusID             *string `json:"scopus_id"`
	WebOfScienceID       *string `json:"web_of_science_id"`
}

func (r ProfileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PhoneNumber, validation.Length(0, 20)),
		validation.Field(&r.Institution, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.PositionTitle, validation.Length(0, 255)),
		validation.Field(&r.Country, validation.Length(0, 100)),
		validation.Field(&r.ORCIDID, validation.Length(0, 50)),
		validation.Field(&r.LinkedInProfile, validation.Length(0, 200), is.URL),
		validation.Field(&r.GoogleScholarProfile, validation.Length(0, 200), is.URL),
		validation.Field(&r.ScopusID, validation.Length(0, 100)),
		validation.Field(&r.WebOfScienceID, validation.Length(0, 100)),
	)
}

func (r *ProfileUpdateRequest) BindForm(lookup FormLookup) {
	for key, dst := range map[string]**string{
		"phone_number":           &r.PhoneNumber,
		"institution":            &r.Institution,
		"position_title":         &r.PositionTitle,
		"country":                &r.Country,
		"editor_bio":             &r.EditorBio,
		"orcid_id":               &r.ORCIDID,
		"linkedin_profile":       &r.LinkedInProfile,
		"google_scholar_profile": &r.GoogleScholarProfile,
		"scopus_id":              &r.ScopusID,
		"web_of_science_id":      &r.WebOfScienceID,
	} {
		if v, ok := lookup(key); ok {
			value := v
			*dst = &value
		}
	}
}

func (r ProfileUpdateRequest) Patch() domain.ProfilePatch {
	return domain.ProfilePatch{
		PhoneNumber:          r.PhoneNumber,
		Institution:          r.Institution,
		PositionTitle:        r.PositionTitle,
		Country:              r.Country,
		EditorBio:            r.EditorBio,
		ORCIDID:              r.ORCIDID,
		LinkedInProfile:      r.LinkedInProfile,
		GoogleScholarProfile: r.GoogleScholarProfile,
		ScopusID:             r.ScopusID,
		WebOfScienceID:       r.WebOfScienceID,
	}
}

// ValidationError turns ozzo-validation errors into a domain validation error.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return domain.NewValidationError(fields)
}
