package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSerializerRoundTrip(t *testing.T) {
	users := newMemoryUsers()
	acct := users.add("alice", "alice@example.com", "hash")
	acct.DisplayName = "Alice A."
	s := NewPrincipalSerializer(users)

	ref := s.Serialize(acct.Principal())
	if ref != acct.ID {
		t.Fatalf("expected the account id as reference, got %q", ref)
	}
	if users.idCalls != 0 {
		t.Fatal("Serialize must not perform lookups")
	}

	p, err := s.Deserialize(context.Background(), ref)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if p.ID != acct.ID || p.DisplayName != "Alice A." {
		t.Fatalf("unexpected principal %#v", p)
	}
	if s.Serialize(nil) != "" {
		t.Fatal("nil principal must serialize to an empty reference")
	}
}

func TestSerializerVanished(t *testing.T) {
	users := newMemoryUsers()
	deleted := users.add("bob", "bob@example.com", "hash")
	now := time.Now()
	deleted.DeletedAt = &now
	s := NewPrincipalSerializer(users)
	ctx := context.Background()

	for name, ref := range map[string]string{
		"malformed": "not-a-uuid",
		"unknown":   uuid.NewString(),
		"deleted":   deleted.ID,
	} {
		if _, err := s.Deserialize(ctx, ref); !errors.Is(err, ErrPrincipalVanished) {
			t.Fatalf("%s: expected ErrPrincipalVanished, got %v", name, err)
		}
	}
	if users.idCalls != 2 {
		t.Fatalf("malformed references must not reach the directory, got %d lookups", users.idCalls)
	}
}

func TestSerializerLookupFailure(t *testing.T) {
	users := newMemoryUsers()
	users.idErr = errBackendDown
	s := NewPrincipalSerializer(users)

	_, err := s.Deserialize(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrAccountLookupFailed) {
		t.Fatalf("expected ErrAccountLookupFailed, got %v", err)
	}
}

func TestAccountPrincipalDefaultsDisplayName(t *testing.T) {
	a := &Account{ID: "id", Username: "alice", PasswordHash: "secret"}
	p := a.Principal()
	if p.DisplayName != "alice" {
		t.Fatalf("expected display name to default to username, got %q", p.DisplayName)
	}
}

func TestGuardRequiresPrincipal(t *testing.T) {
	ctx := context.Background()
	if _, err := RequireAuthenticated(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without state, got %v", err)
	}

	st := &State{phase: PhaseLoaded}
	if _, err := RequireAuthenticated(WithState(ctx, st)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for an anonymous session, got %v", err)
	}

	want := &Principal{ID: "id", Username: "alice"}
	st = &State{phase: PhaseAuthenticated, principal: want}
	got, err := RequireAuthenticated(WithState(ctx, st))
	if err != nil || got != want {
		t.Fatalf("expected principal, got %#v err=%v", got, err)
	}
}
