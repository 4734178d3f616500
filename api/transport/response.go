package transport

import (
	"time"

	"github.com/fastygo/journal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	IsApproved *bool             `json:"is_approved,omitempty"`
}

type MessageResponse struct {
	Message    string `json:"message"`
	IsApproved *bool  `json:"is_approved,omitempty"`
}

// URLResolver maps a stored media key to a public URL, or nil when there is none.
type URLResolver func(key string) *string

type TokenResponse struct {
	Token          string  `json:"token"`
	UserID         int64   `json:"user_id"`
	EICID          int64   `json:"eic_id"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	IsApproved     bool    `json:"is_approved"`
	ProfilePicture *string `json:"profile_picture"`
	Institution    string  `json:"institution"`
}

// StaffTokenResponse answers a staff login. Staff accounts have no editor profile.
type StaffTokenResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsStaff   bool      `json:"is_staff"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidateTokenResponse struct {
	TokenResponse
	PositionTitle *string `json:"position_title"`
	Country       *string `json:"country"`
}

type EditorListItem struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	IsActive       bool      `json:"is_active"`
	IsApproved     bool      `json:"is_approved"`
	Institution    string    `json:"institution"`
	PositionTitle  *string   `json:"position_title"`
	Country        *string   `json:"country"`
	ProfilePicture *string   `json:"profile_picture"`
	DateJoined     time.Time `json:"date_joined"`
}

type EditorDetail struct {
	ID                   int64     `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name"`
	IsActive             bool      `json:"is_active"`
	IsApproved           bool      `json:"is_approved"`
	PhoneNumber          *string   `json:"phone_number"`
	ProfilePicture       *string   `json:"profile_picture"`
	CV                   *string   `json:"cv"`
	Institution          string    `json:"institution"`
	PositionTitle        *string   `json:"position_title"`
	Country              *string   `json:"country"`
	EditorBio            *string   `json:"editor_bio"`
	ORCIDID              *string   `json:"orcid_id"`
	LinkedInProfile      *string   `json:"linkedin_profile"`
	GoogleScholarProfile *string   `json:"google_scholar_profile"`
	ScopusID             *string   `json:"scopus_id"`
	WebOfScienceID       *string   `json:"web_of_science_id"`
	DateJoined           time.Time `json:"date_joined"`
}

// EditorUpdateView mirrors the fields accepted by the update endpoint.
type EditorUpdateView struct {
	PhoneNumber          *string `json:"phone_number"`
	ProfilePicture       *string `json:"profile_picture"`
	CV                   *string `json:"cv"`
	Institution          string  `json:"institution"`
	PositionTitle        *string `json:"position_title"`
	Country              *string `json:"country"`
	EditorBio            *string `json:"editor_bio"`
	ORCIDID              *string `json:"orcid_id"`
	LinkedInProfile      *string `json:"linkedin_profile"`
	GoogleScholarProfile *string `json:"google_scholar_profile"`
	ScopusID             *string `json:"scopus_id"`
	WebOfScienceID       *string `json:"web_of_science_id"`
}

func NewStaffTokenResponse(issued domain.IssuedToken, account domain.Account) StaffTokenResponse {
	return StaffTokenResponse{
		Token:     issued.Value,
		UserID:    account.ID,
		Username:  account.Username,
		Email:     account.Email,
		FullName:  account.FullName(),
		IsStaff:   account.IsStaff,
		ExpiresAt: issued.ExpiresAt,
	}
}

func NewTokenResponse(token string, e domain.Editor, resolve URLResolver) TokenResponse {
	return TokenResponse{
		Token:          token,
		UserID:         e.Account.ID,
		EICID:          e.Profile.ID,
		Email:          e.Account.Email,
		FullName:       e.Account.FullName(),
		IsApproved:     e.Profile.IsApproved,
		ProfilePicture: resolveKey(resolve, e.Profile.ProfilePicture),
		Institution:    e.Profile.Institution,
	}
}

func NewValidateTokenResponse(token string, e domain.Editor, resolve URLResolver) ValidateTokenResponse {
	return ValidateTokenResponse{
		TokenResponse: NewTokenResponse(token, e, resolve),
		PositionTitle: optional(e.Profile.PositionTitle),
		Country:       optional(e.Profile.Country),
	}
}

func NewEditorListItem(e domain.Editor, resolve URLResolver) EditorListItem {
	return EditorListItem{
		ID:             e.Profile.ID,
		Email:          e.Account.Email,
		FullName:       e.Account.FullName(),
		IsActive:       e.Account.IsActive,
		IsApproved:     e.Profile.IsApproved,
		Institution:    e.Profile.Institution,
		PositionTitle:  optional(e.Profile.PositionTitle),
		Country:        optional(e.Profile.Country),
		ProfilePicture: resolveKey(resolve, e.Profile.ProfilePicture),
		DateJoined:     e.Profile.DateJoined,
	}
}

func NewEditorList(editors []domain.Editor, resolve URLResolver) []EditorListItem {
	out := make([]EditorListItem, 0, len(editors))
	for _, e := range editors {
		out = append(out, NewEditorListItem(e, resolve))
	}
	return out
}

func NewEditorDetail(e domain.Editor, resolve URLResolver) EditorDetail {
	p := e.Profile
	return EditorDetail{
		ID:                   p.ID,
		Email:                e.Account.Email,
		FullName:             e.Account.FullName(),
		IsActive:             e.Account.IsActive,
		IsApproved:           p.IsApproved,
		PhoneNumber:          optional(p.PhoneNumber),
		ProfilePicture:       resolveKey(resolve, p.ProfilePicture),
		CV:                   resolveKey(resolve, p.CV),
		Institution:          p.Institution,
		PositionTitle:        optional(p.PositionTitle),
		Country:              optional(p.Country),
		EditorBio:            optional(p.EditorBio),
		ORCIDID:              optional(p.ORCIDID),
		LinkedInProfile:      optional(p.LinkedInProfile),
		GoogleScholarProfile: optional(p.GoogleScholarProfile),
		ScopusID:             optional(p.ScopusID),
		WebOfScienceID:       optional(p.WebOfScienceID),
		DateJoined:           p.DateJoined,
	}
}

func NewEditorUpdateView(e domain.Editor, resolve URLResolver) EditorUpdateView {
	p := e.Profile
	return EditorUpdateView{
		PhoneNumber:          optional(p.PhoneNumber),
		ProfilePicture:       resolveKey(resolve, p.ProfilePicture),
		CV:                   resolveKey(resolve, p.CV),
		Institution:          p.Institution,
		PositionTitle:        optional(p.PositionTitle),
		Country:              optional(p.Country),
		EditorBio:            optional(p.EditorBio),
		ORCIDID:              optional(p.ORCIDID),
		LinkedInProfile:      optional(p.LinkedInProfile),
		GoogleScholarProfile: optional(p.GoogleScholarProfile),
		ScopusID:             optional(p.ScopusID),
		WebOfScienceID:       optional(p.WebOfScienceID),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func resolveKey(resolve URLResolver, key string) *string {
	if key == "" {
		return nil
	}
	if resolve == nil {
		return &key
	}
	return resolve(key)
}
