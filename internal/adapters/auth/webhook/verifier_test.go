package webhook

import (
	"context"
	"errors"
	"testing"
)

func TestVerifyMatchingSecret(t *testing.T) {
	v := NewVerifier("s3cret")

	claims, err := v.Verify(context.Background(), "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if claims.Source != "webhook" {
		t.Fatalf("source = %q", claims.Source)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier("s3cret")

	for _, token := range []string{"otro", "", "s3cre"} {
		if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Verify(%q) err = %v, esperaba ErrUnauthorized", token, err)
		}
	}
}

func TestVerifyUnconfigured(t *testing.T) {
	v := NewVerifier("  ")
	if _, err := v.Verify(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, esperaba ErrNotConfigured", err)
	}
}
