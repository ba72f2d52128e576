package users

import (
	"context"
	"testing"
)

type testRepo struct {
	byID    map[string]User
	byPhone map[string]string
	places  map[string]Place
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:    map[string]User{},
		byPhone: map[string]string{},
		places:  map[string]Place{},
	}
}

func (r *testRepo) UpsertUser(ctx context.Context, u User) error {
	r.byID[u.ID] = u
	r.byPhone[u.Phone] = u.ID
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	id, ok := r.byPhone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) UpsertPlace(ctx context.Context, p Place) error {
	r.places[p.Owner+"|"+p.Label] = p
	return nil
}

func (r *testRepo) GetPlace(ctx context.Context, owner, label string) (Place, error) {
	p, ok := r.places[owner+"|"+label]
	if !ok {
		return Place{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListPlaces(ctx context.Context, owner string) ([]Place, error) {
	out := make([]Place, 0)
	for _, p := range r.places {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestBindIsIdempotentPerPhone(t *testing.T) {
	svc := NewService(newTestRepo())

	first, err := svc.Bind(context.Background(), "+5511999990000", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	again, err := svc.Bind(context.Background(), "+5511999990000", "Ana Maria")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Fatalf("segundo Bind creó otro usuario: %s != %s", again.ID, first.ID)
	}
}

func TestBindRequiresPhone(t *testing.T) {
	svc := NewService(newTestRepo())
	if _, err := svc.Bind(context.Background(), "  ", "Ana"); err != ErrInvalidInput {
		t.Fatalf("err = %v, esperaba ErrInvalidInput", err)
	}
}

func TestSavePlaceReplacesByLabel(t *testing.T) {
	svc := NewService(newTestRepo())

	first, err := svc.SavePlace(context.Background(), "owner-1", "Escola", "Rua A, 1")
	if err != nil {
		t.Fatal(err)
	}

	// mismo label con otra caja: reemplaza, conserva ID
	second, err := svc.SavePlace(context.Background(), "owner-1", "escola", "Rua B, 2")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("reemplazo cambió el ID: %s != %s", second.ID, first.ID)
	}
	if second.Address != "Rua B, 2" {
		t.Fatalf("address = %q", second.Address)
	}
}

func TestResolveOriginDefaultsToCasa(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.SavePlace(context.Background(), "owner-1", "casa", "Rua Casa, 10"); err != nil {
		t.Fatal(err)
	}

	addr, err := svc.ResolveOrigin(context.Background(), "owner-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if addr != "Rua Casa, 10" {
		t.Fatalf("origin = %q", addr)
	}
}

func TestResolveOriginUnknownLabel(t *testing.T) {
	svc := NewService(newTestRepo())
	if _, err := svc.ResolveOrigin(context.Background(), "owner-1", "trabalho"); err != ErrNotFound {
		t.Fatalf("err = %v, esperaba ErrNotFound", err)
	}
}
