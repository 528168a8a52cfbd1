package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "floorops-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	staffID := uuid.New()
	venueID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		StaffID: staffID,
		VenueID: venueID,
		Role:    enums.StaffRoleManager,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.StaffID != staffID {
		t.Fatalf("unexpected staff id %s", claims.StaffID)
	}
	if claims.VenueID != venueID {
		t.Fatalf("unexpected venue id %s", claims.VenueID)
	}
	if claims.Role != enums.StaffRoleManager {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()

	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.StaffRoleManager}); err == nil {
		t.Fatal("expected error without staff id")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{StaffID: uuid.New(), Role: "sommelier"}); err == nil {
		t.Fatal("expected error for unknown role")
	}

	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{StaffID: uuid.New(), Role: enums.StaffRoleWaiter}); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		StaffID: uuid.New(),
		VenueID: uuid.New(),
		Role:    enums.StaffRoleWaiter,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		StaffID: uuid.New(),
		VenueID: uuid.New(),
		Role:    enums.StaffRoleWaiter,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}
