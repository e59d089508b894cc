package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	coreErrors "hutbook/core/errors"
	"hutbook/modules/auth/entity"
	venueEntity "hutbook/modules/venue/entity"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type stubCredentialRepo struct {
	conn         *entity.CalendarConnection
	getErr       error
	deleted      bool
	tokensSaved  bool
	upsertedConn *entity.CalendarConnection
}

func (r *stubCredentialRepo) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.conn, nil
}

func (r *stubCredentialRepo) Upsert(ctx context.Context, conn *entity.CalendarConnection) error {
	r.upsertedConn = conn
	return nil
}

func (r *stubCredentialRepo) UpdateTokens(ctx context.Context, conn *entity.CalendarConnection) error {
	r.tokensSaved = true
	r.conn = conn
	return nil
}

func (r *stubCredentialRepo) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	r.deleted = true
	r.conn = nil
	return nil
}

type stubHutRepo struct {
	syncDisabledFor *uuid.UUID
}

func (r *stubHutRepo) CreateHut(ctx context.Context, hut *venueEntity.Hut) (*venueEntity.Hut, error) {
	return hut, nil
}
func (r *stubHutRepo) GetHutByID(ctx context.Context, id uuid.UUID) (*venueEntity.Hut, error) {
	return nil, nil
}
func (r *stubHutRepo) GetHutBySlug(ctx context.Context, slug string) (*venueEntity.Hut, error) {
	return nil, nil
}
func (r *stubHutRepo) GetHutsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]venueEntity.Hut, error) {
	return nil, nil
}
func (r *stubHutRepo) UpdateHut(ctx context.Context, hut *venueEntity.Hut) error { return nil }
func (r *stubHutRepo) UpdateSyncSettings(ctx context.Context, id uuid.UUID, calendarID *string, enabled bool, direction string) error {
	return nil
}
func (r *stubHutRepo) UpdateLastSyncedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}
func (r *stubHutRepo) SetPhotoURL(ctx context.Context, id uuid.UUID, url string) error { return nil }
func (r *stubHutRepo) ListSyncEnabledHuts(ctx context.Context) ([]venueEntity.Hut, error) {
	return nil, nil
}
func (r *stubHutRepo) IsSyncEnabled(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}
func (r *stubHutRepo) DisableSyncForOwner(ctx context.Context, ownerID uuid.UUID) error {
	r.syncDisabledFor = &ownerID
	return nil
}

type memCache struct {
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *memCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func oauthConfigFor(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenURL + "/auth", TokenURL: tokenURL + "/token"},
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
	}
}

func connectionExpiring(in time.Duration) *entity.CalendarConnection {
	return &entity.CalendarConnection{
		UserID:         uuid.New(),
		Provider:       entity.ProviderGoogle,
		AccessToken:    "stored-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: time.Now().Add(in),
		IsActive:       true,
	}
}

func TestGetValidAccessTokenUsesFreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no refresh request expected for a fresh token")
	}))
	defer server.Close()

	repo := &stubCredentialRepo{conn: connectionExpiring(time.Hour)}
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor(server.URL))

	token, appErr := svc.GetValidAccessToken(context.Background(), repo.conn.UserID)
	if appErr != nil {
		t.Fatalf("GetValidAccessToken: %v", appErr)
	}
	if token != "stored-token" {
		t.Errorf("token = %q, want stored-token", token)
	}
}

func TestGetValidAccessTokenRefreshesNearExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"refreshed-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	repo := &stubCredentialRepo{conn: connectionExpiring(time.Minute)}
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor(server.URL))

	token, appErr := svc.GetValidAccessToken(context.Background(), repo.conn.UserID)
	if appErr != nil {
		t.Fatalf("GetValidAccessToken: %v", appErr)
	}
	if token != "refreshed-token" {
		t.Errorf("token = %q, want refreshed-token", token)
	}
	if !repo.tokensSaved {
		t.Error("refreshed tokens must be persisted")
	}
	if repo.conn.AccessToken != "refreshed-token" {
		t.Errorf("persisted token = %q", repo.conn.AccessToken)
	}
}

func TestGetValidAccessTokenPurgesOnInvalidGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	repo := &stubCredentialRepo{conn: connectionExpiring(time.Minute)}
	userID := repo.conn.UserID
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor(server.URL))

	_, appErr := svc.GetValidAccessToken(context.Background(), userID)
	if appErr == nil || appErr.Code != coreErrors.ErrUnauthorized {
		t.Fatalf("appErr = %v, want unauthorized", appErr)
	}
	if !repo.deleted {
		t.Error("a rejected refresh token must purge the credential")
	}
}

func TestGetValidAccessTokenKeepsCredentialOnTransientFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := &stubCredentialRepo{conn: connectionExpiring(time.Minute)}
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor(server.URL))

	_, appErr := svc.GetValidAccessToken(context.Background(), repo.conn.UserID)
	if appErr == nil || appErr.Code != coreErrors.ErrExternalService {
		t.Fatalf("appErr = %v, want external service", appErr)
	}
	if repo.deleted {
		t.Error("a transient failure must not purge the credential")
	}
}

func TestGetValidAccessTokenNotConnected(t *testing.T) {
	repo := &stubCredentialRepo{}
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor("http://localhost"))

	_, appErr := svc.GetValidAccessToken(context.Background(), uuid.New())
	if appErr == nil || appErr.Code != coreErrors.ErrUnauthorized {
		t.Fatalf("appErr = %v, want unauthorized", appErr)
	}
}

func TestGetAuthURLStoresState(t *testing.T) {
	cacheClient := newMemCache()
	svc := NewTokenServiceWithOAuth(&stubCredentialRepo{}, &stubHutRepo{}, cacheClient, oauthConfigFor("http://localhost"))

	userID := uuid.New()
	resp, appErr := svc.GetAuthURL(context.Background(), userID)
	if appErr != nil {
		t.Fatalf("GetAuthURL: %v", appErr)
	}
	if resp.State == "" || resp.URL == "" {
		t.Fatalf("resp = %+v", resp)
	}
	stored, ok := cacheClient.values[oauthStateKeyPrefix+resp.State]
	if !ok || stored != userID.String() {
		t.Errorf("stored state = %q, %v", stored, ok)
	}
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	svc := NewTokenServiceWithOAuth(&stubCredentialRepo{}, &stubHutRepo{}, newMemCache(), oauthConfigFor("http://localhost"))

	appErr := svc.HandleCallback(context.Background(), "bogus-state", "code")
	if appErr == nil || appErr.Code != coreErrors.ErrUnauthorized {
		t.Fatalf("appErr = %v, want unauthorized", appErr)
	}
}

func TestDisconnectDisablesHutSync(t *testing.T) {
	repo := &stubCredentialRepo{conn: connectionExpiring(time.Hour)}
	hutRepo := &stubHutRepo{}
	userID := repo.conn.UserID
	svc := NewTokenServiceWithOAuth(repo, hutRepo, newMemCache(), oauthConfigFor("http://localhost"))

	if appErr := svc.Disconnect(context.Background(), userID); appErr != nil {
		t.Fatalf("Disconnect: %v", appErr)
	}
	if !repo.deleted {
		t.Error("credential must be deleted")
	}
	if hutRepo.syncDisabledFor == nil || *hutRepo.syncDisabledFor != userID {
		t.Error("owner's huts must have sync disabled")
	}
}

func TestGetConnectionStatus(t *testing.T) {
	repo := &stubCredentialRepo{}
	svc := NewTokenServiceWithOAuth(repo, &stubHutRepo{}, newMemCache(), oauthConfigFor("http://localhost"))

	status, appErr := svc.GetConnectionStatus(context.Background(), uuid.New())
	if appErr != nil {
		t.Fatalf("GetConnectionStatus: %v", appErr)
	}
	if status.Connected {
		t.Error("expected not connected")
	}

	repo.conn = connectionExpiring(time.Hour)
	repo.conn.CalendarEmail = "leader@example.com"
	status, appErr = svc.GetConnectionStatus(context.Background(), repo.conn.UserID)
	if appErr != nil {
		t.Fatalf("GetConnectionStatus: %v", appErr)
	}
	if !status.Connected || status.CalendarEmail != "leader@example.com" {
		t.Errorf("status = %+v", status)
	}
}
