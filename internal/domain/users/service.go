package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lembra/internal/platform/braziltime"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  braziltime.Now,
	}
}

// Bind asocia (o re-asocia) un teléfono a un usuario. Si el teléfono ya
// existe devuelve el usuario vigente; el webhook lo llama en cada inbound.
func (s *Service) Bind(ctx context.Context, phone, name string) (User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return User{}, ErrInvalidInput
	}

	if u, err := s.repo.GetByPhone(ctx, phone); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	u := User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Phone:     phone,
		CreatedAt: s.now(),
	}
	if err := s.repo.UpsertUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// SavePlace guarda un lugar favorito; label repetido reemplaza la dirección.
func (s *Service) SavePlace(ctx context.Context, owner, label, address string) (Place, error) {
	owner = strings.TrimSpace(owner)
	label = strings.ToLower(strings.TrimSpace(label))
	address = strings.TrimSpace(address)
	if owner == "" || label == "" || address == "" {
		return Place{}, ErrInvalidInput
	}

	p := Place{
		ID:      uuid.NewString(),
		Owner:   owner,
		Label:   label,
		Address: address,
	}
	if existing, err := s.repo.GetPlace(ctx, owner, label); err == nil {
		p.ID = existing.ID
	} else if !errors.Is(err, ErrNotFound) {
		return Place{}, err
	}

	if err := s.repo.UpsertPlace(ctx, p); err != nil {
		return Place{}, err
	}
	return p, nil
}

// ResolveOrigin devuelve la dirección del lugar favorito pedido; sin label
// intenta "casa" (el origen habitual para estimar viaje).
func (s *Service) ResolveOrigin(ctx context.Context, owner, label string) (string, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		label = "casa"
	}
	p, err := s.repo.GetPlace(ctx, owner, label)
	if err != nil {
		return "", err
	}
	return p.Address, nil
}

func (s *Service) ListPlaces(ctx context.Context, owner string) ([]Place, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListPlaces(ctx, owner)
}
