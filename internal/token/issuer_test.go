package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueSignsVerifiableCredential(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)

	credential, err := issuer.Issue(context.Background(), "acct-1", "Ada Obi")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := jwt.Parse(credential, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims["sub"] != "acct-1" {
		t.Fatalf("wrong subject: %v", claims["sub"])
	}
	if claims["name"] != "Ada Obi" {
		t.Fatalf("wrong display name: %v", claims["name"])
	}
	if _, ok := claims["password"]; ok {
		t.Fatal("credential must not carry password material")
	}
}

func TestIssueMintsFreshCredentials(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	ctx := context.Background()

	first, err := issuer.Issue(ctx, "acct-1", "Ada Obi")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := issuer.Issue(ctx, "acct-1", "Ada Obi")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first == second {
		t.Fatal("each call must mint a distinct credential")
	}
}
