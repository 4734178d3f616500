package domain

import "time"

// Media folders used for uploaded editor files.
const (
	FolderProfilePictures = "eic_profile_pictures"
	FolderCVs             = "eic_cvs"
)

// EditorProfile extends an Account with Editor-in-Chief metadata.
// IsApproved starts false and only the approval flow flips it.
type EditorProfile struct {
	ID                   int64     `json:"id"`
	AccountID            int64     `json:"account_id"`
	PhoneNumber          string    `json:"phone_number,omitempty"`
	ProfilePicture       string    `json:"profile_picture,omitempty"`
	CV                   string    `json:"cv,omitempty"`
	Institution          string    `json:"institution"`
	PositionTitle        string    `json:"position_title,omitempty"`
	Country              string    `json:"country,omitempty"`
	EditorBio            string    `json:"editor_bio,omitempty"`
	ORCIDID              string    `json:"orcid_id,omitempty"`
	LinkedInProfile      string    `json:"linkedin_profile,omitempty"`
	GoogleScholarProfile string    `json:"google_scholar_profile,omitempty"`
	ScopusID             string    `json:"scopus_id,omitempty"`
	WebOfScienceID       string    `json:"web_of_science_id,omitempty"`
	IsActive             bool      `json:"is_active"`
	IsApproved           bool      `json:"is_approved"`
	DateJoined           time.Time `json:"date_joined"`
}

// Editor is a profile joined with its backing account.
type Editor struct {
	Profile EditorProfile `json:"profile"`
	Account Account       `json:"account"`
}

// ProfilePatch carries the self-service update surface. A nil field is left untouched.
// Identity and approval fields are deliberately absent.
type ProfilePatch struct {
	PhoneNumber          *string `json:"phone_number,omitempty"`
	ProfilePicture       *string `json:"profile_picture,omitempty"`
	CV                   *string `json:"cv,omitempty"`
	Institution          *string `json:"institution,omitempty"`
	PositionTitle        *string `json:"position_title,omitempty"`
	Country              *string `json:"country,omitempty"`
	EditorBio            *string `json:"editor_bio,omitempty"`
	ORCIDID              *string `json:"orcid_id,omitempty"`
	LinkedInProfile      *string `json:"linkedin_profile,omitempty"`
	GoogleScholarProfile *string `json:"google_scholar_profile,omitempty"`
	ScopusID             *string `json:"scopus_id,omitempty"`
	WebOfScienceID       *string `json:"web_of_science_id,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	for _, src := range p.fields() {
		if *src != nil {
			return false
		}
	}
	return true
}

// Apply copies every set field of the patch onto profile.
func (p ProfilePatch) Apply(profile *EditorProfile) {
	if profile == nil {
		return
	}
	dst := profile.metadataFields()
	for i, src := range p.fields() {
		if *src != nil {
			*dst[i] = **src
		}
	}
}

func (p *ProfilePatch) fields() []**string {
	return []**string{
		&p.PhoneNumber,
		&p.ProfilePicture,
		&p.CV,
		&p.Institution,
		&p.PositionTitle,
		&p.Country,
		&p.EditorBio,
		&p.ORCIDID,
		&p.LinkedInProfile,
		&p.GoogleScholarProfile,
		&p.ScopusID,
		&p.WebOfScienceID,
	}
}

// metadataFields must stay aligned with ProfilePatch.fields.
func (e *EditorProfile) metadataFields() []*string {
	return []*string{
		&e.PhoneNumber,
		&e.ProfilePicture,
		&e.CV,
		&e.Institution,
		&e.PositionTitle,
		&e.Country,
		&e.EditorBio,
		&e.ORCIDID,
		&e.LinkedInProfile,
		&e.GoogleScholarProfile,
		&e.ScopusID,
		&e.WebOfScienceID,
	}
}
