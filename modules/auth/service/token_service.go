package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"hutbook/core/cache"
	"hutbook/core/config"
	"hutbook/core/constants"
	"hutbook/core/errors"
	"hutbook/core/logger"
	"hutbook/core/utils"
	"hutbook/modules/auth/dto"
	"hutbook/modules/auth/entity"
	"hutbook/modules/auth/repository"
	venueRepo "hutbook/modules/venue/repository"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateKeyPrefix = "oauth_state:"

type TokenService interface {
	// GetValidAccessToken returns a fresh access token for the user's Google
	// connection, refreshing it first if it is within the expiry buffer. An
	// ErrUnauthorized result means the user must re-run the grant flow.
	GetValidAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)

	GetAuthURL(ctx context.Context, userID uuid.UUID) (*dto.OAuthURLResponse, *errors.AppError)
	HandleCallback(ctx context.Context, state, code string) *errors.AppError
	Disconnect(ctx context.Context, userID uuid.UUID) *errors.AppError
	GetConnectionStatus(ctx context.Context, userID uuid.UUID) (*dto.ConnectionStatusResponse, *errors.AppError)
}

type tokenService struct {
	repo        repository.CredentialRepository
	hutRepo     venueRepo.HutRepository
	cache       cache.Cache
	oauthConfig *oauth2.Config
}

func NewTokenService(repo repository.CredentialRepository, hutRepo venueRepo.HutRepository, cacheClient cache.Cache) TokenService {
	cfg := config.Get()
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURL:  cfg.GoogleAPI.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/calendar",
			"https://www.googleapis.com/auth/userinfo.email",
		},
	}
	return NewTokenServiceWithOAuth(repo, hutRepo, cacheClient, oauthConfig)
}

// NewTokenServiceWithOAuth allows injecting the oauth2 config (tests point
// its endpoint at a local server).
func NewTokenServiceWithOAuth(repo repository.CredentialRepository, hutRepo venueRepo.HutRepository, cacheClient cache.Cache, oauthConfig *oauth2.Config) TokenService {
	return &tokenService{
		repo:        repo,
		hutRepo:     hutRepo,
		cache:       cacheClient,
		oauthConfig: oauthConfig,
	}
}

func (s *tokenService) GetValidAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	conn, err := s.repo.GetByUserAndProvider(ctx, userID, entity.ProviderGoogle)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to load calendar credential", err)
	}
	if conn == nil {
		return "", errors.NewAppError(errors.ErrUnauthorized, "Google Calendar not connected", nil)
	}

	// Still comfortably inside the expiry buffer: use the cached token.
	if time.Until(conn.TokenExpiresAt) > constants.TokenExpiryBuffer {
		return conn.AccessToken, nil
	}

	logger.Info("TokenService:GetValidAccessToken:Refreshing", "user_id", userID)

	tokenSource := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest ||
				retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			// Refresh token revoked or invalid: purge the credential so the
			// user is forced through a fresh grant.
			logger.Warn("TokenService:GetValidAccessToken:RefreshRejected", "user_id", userID, "status", retrieveErr.Response.StatusCode)
			if delErr := s.repo.Delete(ctx, userID, entity.ProviderGoogle); delErr != nil {
				logger.Error("TokenService:GetValidAccessToken:PurgeCredential:Error", "error", delErr, "user_id", userID)
			}
			return "", errors.NewAppError(errors.ErrUnauthorized, "Google authorization revoked, please reconnect", err)
		}
		// Transient (network, 5xx): keep the credential so a later retry can succeed.
		logger.Error("TokenService:GetValidAccessToken:RefreshTransientError", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrExternalService, "failed to refresh Google token", err)
	}

	conn.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		conn.RefreshToken = token.RefreshToken
	}
	conn.TokenExpiresAt = token.Expiry
	if err := s.repo.UpdateTokens(ctx, conn); err != nil {
		// Token is still usable for this call; the next call refreshes again.
		logger.Error("TokenService:GetValidAccessToken:PersistTokens:Error", "error", err, "user_id", userID)
	}

	logger.Info("TokenService:GetValidAccessToken:Refreshed", "user_id", userID, "expires_at", conn.TokenExpiresAt)
	return token.AccessToken, nil
}

func (s *tokenService) GetAuthURL(ctx context.Context, userID uuid.UUID) (*dto.OAuthURLResponse, *errors.AppError) {
	state := utils.GenerateRandomString(32)
	if err := s.cache.Set(ctx, oauthStateKeyPrefix+state, userID.String(), constants.OAuthStateTTL); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store oauth state", err)
	}

	url := s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return &dto.OAuthURLResponse{URL: url, State: state}, nil
}

func (s *tokenService) HandleCallback(ctx context.Context, state, code string) *errors.AppError {
	userIDStr, found, err := s.cache.Get(ctx, oauthStateKeyPrefix+state)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to check oauth state", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrUnauthorized, "invalid or expired oauth state", nil)
	}
	_ = s.cache.Delete(ctx, oauthStateKeyPrefix+state)

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "corrupt oauth state", err)
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		logger.Error("TokenService:HandleCallback:Exchange:Error", "error", err, "user_id", userID)
		return errors.NewAppError(errors.ErrExternalService, "failed to exchange authorization code", err)
	}

	email, err := s.fetchAccountEmail(ctx, token.AccessToken)
	if err != nil {
		logger.Warn("TokenService:HandleCallback:FetchEmail:Error", "error", err, "user_id", userID)
	}

	conn := &entity.CalendarConnection{
		UserID:         userID,
		Provider:       entity.ProviderGoogle,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry,
		CalendarEmail:  email,
		IsActive:       true,
	}
	if err := s.repo.Upsert(ctx, conn); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to save calendar connection", err)
	}

	logger.Info("TokenService:HandleCallback:Connected", "user_id", userID, "email", email)
	return nil
}

func (s *tokenService) Disconnect(ctx context.Context, userID uuid.UUID) *errors.AppError {
	if err := s.repo.Delete(ctx, userID, entity.ProviderGoogle); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete calendar connection", err)
	}
	// Without a credential no sync pass can run; disable the flag so the
	// scheduler stops enqueueing work for this owner's huts.
	if err := s.hutRepo.DisableSyncForOwner(ctx, userID); err != nil {
		logger.Error("TokenService:Disconnect:DisableSync:Error", "error", err, "user_id", userID)
	}

	logger.Info("TokenService:Disconnect:Success", "user_id", userID)
	return nil
}

func (s *tokenService) GetConnectionStatus(ctx context.Context, userID uuid.UUID) (*dto.ConnectionStatusResponse, *errors.AppError) {
	conn, err := s.repo.GetByUserAndProvider(ctx, userID, entity.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar connection", err)
	}
	if conn == nil {
		return &dto.ConnectionStatusResponse{Connected: false}, nil
	}
	return &dto.ConnectionStatusResponse{
		Connected:      true,
		CalendarEmail:  conn.CalendarEmail,
		TokenExpiresAt: &conn.TokenExpiresAt,
	}, nil
}

func (s *tokenService) fetchAccountEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("userinfo API error: %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}
