package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIREBASE_PROJECT_ID":   "clothology-test",
		"API_STORAGE_IMAGES_BUCKET": "clothology-test-images",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(baseEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "clothology-test" {
		t.Fatalf("expected firestore project inherited from firebase, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.GenAI.ImageCount != 3 || cfg.GenAI.RequestsPerMin != 10 {
		t.Fatalf("unexpected genai defaults %#v", cfg.GenAI)
	}
	if cfg.Idempotency.Header != "Idempotency-Key" || cfg.Idempotency.TTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency defaults %#v", cfg.Idempotency)
	}
	if len(cfg.Security.OIDC.Issuers) != 2 {
		t.Fatalf("expected default issuers, got %v", cfg.Security.OIDC.Issuers)
	}
}

func TestLoadValidatesRequiredFields(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(""), WithoutSystemEnv())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := verr.Fields()
	want := map[string]bool{"Firebase.ProjectID": false, "Storage.ImagesBucket": false}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("expected %s reported missing, got %v", field, fields)
		}
	}
}

func TestLoadResolvesSecretReferences(t *testing.T) {
	env := baseEnv()
	env["API_GENAI_API_KEY"] = "sm://projects/p/secrets/genai/versions/latest"

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref != "secret://projects/p/secrets/genai/versions/latest" {
			t.Fatalf("unexpected ref %q", ref)
		}
		return "resolved-key", nil
	})

	cfg, err := Load(context.Background(), WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(env), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GenAI.APIKey != "resolved-key" {
		t.Fatalf("expected resolved secret, got %q", cfg.GenAI.APIKey)
	}
}

func TestLoadSecretResolverFailure(t *testing.T) {
	env := baseEnv()
	env["API_MAIL_API_KEY"] = "secret://projects/p/secrets/mail/versions/1"

	boom := errors.New("boom")
	resolver := SecretResolverFunc(func(context.Context, string) (string, error) {
		return "", boom
	})

	_, err := Load(context.Background(), WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(env), WithSecretResolver(resolver))
	var serr *SecretError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestLoadParsesAudienceMap(t *testing.T) {
	env := baseEnv()
	env["API_SECURITY_ENVIRONMENT"] = "Staging"
	env["API_SECURITY_OIDC_AUDIENCES"] = "staging=https://staging.example.com, prod=https://example.com"

	cfg, err := Load(context.Background(), WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Security.OIDC.Audience != "https://staging.example.com" {
		t.Fatalf("expected audience from environment map, got %q", cfg.Security.OIDC.Audience)
	}
}
