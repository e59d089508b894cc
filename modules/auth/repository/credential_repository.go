package repository

import (
	"context"
	"database/sql"

	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/modules/auth/entity"

	"github.com/google/uuid"
)

type CredentialRepository interface {
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error)
	Upsert(ctx context.Context, conn *entity.CalendarConnection) error
	UpdateTokens(ctx context.Context, conn *entity.CalendarConnection) error
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

type credentialRepository struct {
	db database.Database
}

func NewCredentialRepository(db database.Database) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at,
		       calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE user_id = $1 AND provider = $2 AND is_active = true
	`
	var conn entity.CalendarConnection
	err := r.db.GetContext(ctx, &conn, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CredentialRepository:GetByUserAndProvider:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &conn, nil
}

func (r *credentialRepository) Upsert(ctx context.Context, conn *entity.CalendarConnection) error {
	query := `
		INSERT INTO calendar_connections (user_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (user_id, provider) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    calendar_email = EXCLUDED.calendar_email,
		    is_active = true,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		conn.UserID, conn.Provider, conn.AccessToken, conn.RefreshToken,
		conn.TokenExpiresAt, conn.CalendarEmail,
	).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		logger.Error("CredentialRepository:Upsert:Error", "error", err, "user_id", conn.UserID)
	}
	return err
}

func (r *credentialRepository) UpdateTokens(ctx context.Context, conn *entity.CalendarConnection) error {
	query := `
		UPDATE calendar_connections
		SET access_token = $3, refresh_token = $4, token_expires_at = $5, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	return r.db.ExecContext(ctx, query,
		conn.UserID, conn.Provider, conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt)
}

func (r *credentialRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	return r.db.ExecContext(ctx,
		`DELETE FROM calendar_connections WHERE user_id = $1 AND provider = $2`, userID, provider)
}
