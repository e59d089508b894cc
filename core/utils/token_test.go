package utils

import (
	"testing"
	"time"

	"hutbook/core/config"
	"hutbook/core/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestValidateAndParseToken(t *testing.T) {
	config.SetForTesting(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})
	userID := uuid.New()

	data, appErr := ValidateAndParseToken(signedToken(t, "test-secret", jwt.MapClaims{
		"sub":   userID.String(),
		"email": "leader@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))
	if appErr != nil {
		t.Fatalf("ValidateAndParseToken: %v", appErr)
	}
	if data.UserID != userID || data.Email != "leader@example.com" {
		t.Errorf("data = %+v", data)
	}
}

func TestValidateAndParseTokenExpired(t *testing.T) {
	config.SetForTesting(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})

	_, appErr := ValidateAndParseToken(signedToken(t, "test-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}))
	if appErr == nil || appErr.Code != errors.ErrTokenExpired {
		t.Fatalf("appErr = %v, want token expired", appErr)
	}
}

func TestValidateAndParseTokenWrongKey(t *testing.T) {
	config.SetForTesting(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})

	_, appErr := ValidateAndParseToken(signedToken(t, "other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	if appErr == nil || appErr.Code != errors.ErrInvalidTokenFormat {
		t.Fatalf("appErr = %v, want invalid token", appErr)
	}
}
