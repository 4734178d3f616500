package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/repository"
)

type editorRepository struct {
	db Queryer
}

// NewEditorRepository returns a Postgres-backed implementation of EditorRepository.
func NewEditorRepository(db Queryer) repository.EditorRepository {
	return &editorRepository{db: db}
}

const editorColumns = `
	ep.id, ep.account_id, ep.phone_number, ep.profile_picture, ep.cv, ep.institution,
	ep.position_title, ep.country, ep.editor_bio, ep.orcid_id, ep.linkedin_profile,
	ep.google_scholar_profile, ep.scopus_id, ep.web_of_science_id, ep.is_active,
	ep.is_approved, ep.date_joined,
	a.id, a.username, a.email, a.first_name, a.last_name, a.is_active, a.is_staff, a.date_joined`

func (r *editorRepository) Create(ctx context.Context, profile *domain.EditorProfile) error {
	if profile == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO editor_profiles (
		account_id, phone_number, profile_picture, cv, institution, position_title, country,
		editor_bio, orcid_id, linkedin_profile, google_scholar_profile, scopus_id,
		web_of_science_id, is_active, is_approved
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE)
	RETURNING id, is_approved, date_joined
	`

	if err := r.db.QueryRow(ctx, query,
		profile.AccountID,
		profile.PhoneNumber,
		profile.ProfilePicture,
		profile.CV,
		profile.Institution,
		profile.PositionTitle,
		profile.Country,
		profile.EditorBio,
		profile.ORCIDID,
		profile.LinkedInProfile,
		profile.GoogleScholarProfile,
		profile.ScopusID,
		profile.WebOfScienceID,
		profile.IsActive,
	).Scan(&profile.ID, &profile.IsApproved, &profile.DateJoined); err != nil {
		return mapWriteError(err, "account already has an editor profile")
	}
	return nil
}

func (r *editorRepository) GetByID(ctx context.Context, id int64) (*domain.Editor, error) {
	query := `
	SELECT ` + editorColumns + `
	FROM editor_profiles ep
	JOIN accounts a ON a.id = ep.account_id
	WHERE ep.id = $1
	`
	return scanEditor(r.db.QueryRow(ctx, query, id))
}

func (r *editorRepository) GetByAccountID(ctx context.Context, accountID int64) (*domain.Editor, error) {
	query := `
	SELECT ` + editorColumns + `
	FROM editor_profiles ep
	JOIN accounts a ON a.id = ep.account_id
	WHERE ep.account_id = $1
	`
	return scanEditor(r.db.QueryRow(ctx, query, accountID))
}

func (r *editorRepository) List(ctx context.Context, filter repository.EditorFilter) ([]domain.Editor, error) {
	query := `
	SELECT ` + editorColumns + `
	FROM editor_profiles ep
	JOIN accounts a ON a.id = ep.account_id
	WHERE ($1::boolean IS NULL OR ep.is_approved = $1)
	ORDER BY ep.id
	LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, filter.Approved, limitArg(filter.Limit), offsetArg(filter.Offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var editors []domain.Editor
	for rows.Next() {
		editor, err := scanEditor(rows)
		if err != nil {
			return nil, err
		}
		editors = append(editors, *editor)
	}
	return editors, rows.Err()
}

func (r *editorRepository) Approve(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE editor_profiles SET is_approved = TRUE WHERE id = $1 AND NOT is_approved`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *editorRepository) UpdateMetadata(ctx context.Context, id int64, patch domain.ProfilePatch) (*domain.Editor, error) {
	query := `
	WITH ep AS (
		UPDATE editor_profiles
		SET phone_number = COALESCE($2, phone_number),
			profile_picture = COALESCE($3, profile_picture),
			cv = COALESCE($4, cv),
			institution = COALESCE($5, institution),
			position_title = COALESCE($6, position_title),
			country = COALESCE($7, country),
			editor_bio = COALESCE($8, editor_bio),
			orcid_id = COALESCE($9, orcid_id),
			linkedin_profile = COALESCE($10, linkedin_profile),
			google_scholar_profile = COALESCE($11, google_scholar_profile),
			scopus_id = COALESCE($12, scopus_id),
			web_of_science_id = COALESCE($13, web_of_science_id)
		WHERE id = $1
		RETURNING *
	)
	SELECT ` + editorColumns + `
	FROM ep
	JOIN accounts a ON a.id = ep.account_id
	`
	return scanEditor(r.db.QueryRow(ctx, query,
		id,
		patch.PhoneNumber,
		patch.ProfilePicture,
		patch.CV,
		patch.Institution,
		patch.PositionTitle,
		patch.Country,
		patch.EditorBio,
		patch.ORCIDID,
		patch.LinkedInProfile,
		patch.GoogleScholarProfile,
		patch.ScopusID,
		patch.WebOfScienceID,
	))
}

func scanEditor(row scanner) (*domain.Editor, error) {
	var editor domain.Editor
	p := &editor.Profile
	a := &editor.Account

	if err := row.Scan(
		&p.ID,
		&p.AccountID,
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
		&p.IsActive,
		&p.IsApproved,
		&p.DateJoined,
		&a.ID,
		&a.Username,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.IsActive,
		&a.IsStaff,
		&a.DateJoined,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEditorNotFound
		}
		return nil, err
	}
	return &editor, nil
}
