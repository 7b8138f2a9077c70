package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

type Options struct {
	// AllowDemoSignIn provisions a demo profile when an unknown email signs in.
	AllowDemoSignIn bool
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
	Now      func() time.Time
}

type Service struct {
	store    domain.ProfileStore
	demo     bool
	hashCost int
	now      func() time.Time
}

func NewService(store domain.ProfileStore, opts Options) *Service {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		demo:     opts.AllowDemoSignIn,
		hashCost: cost,
		now:      now,
	}
}

type SignUpInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	State           string
	Language        string
}

// SignUp validates the form and stores a new profile. A *ValidationError
// names the offending field.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*domain.Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With("email", in.Email)

	existing, err := s.store.GetProfile(ctx, in.Email)
	switch {
	case err == nil && !existing.Demo:
		return nil, domain.ErrProfileExists
	case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &domain.Profile{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		State:        in.State,
		Language:     in.Language,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		log.Errorw("failed to save profile", "error", err)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	log.Infow("profile created", "state", p.State, "language", p.Language)
	return p, nil
}

// SignIn checks the credentials against the stored profile.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("email", "Please fill in all fields")
	}
	if !ValidEmail(email) {
		return nil, invalid("email", "Please enter a valid email address")
	}

	log := observability.LoggerFromContext(ctx).With("email", email)

	p, err := s.store.GetProfile(ctx, email)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		if !s.demo {
			return nil, domain.ErrInvalidCredentials
		}
		return s.provisionDemo(ctx, email)
	case err != nil:
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	if p.Demo && len(p.PasswordHash) == 0 {
		if !s.demo {
			return nil, domain.ErrInvalidCredentials
		}
		return p, nil
	}
	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)); err != nil {
		log.Infow("sign in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	log.Infow("signed in")
	return p, nil
}

func (s *Service) provisionDemo(ctx context.Context, email string) (*domain.Profile, error) {
	p := &domain.Profile{
		Email:     email,
		FirstName: "Demo",
		LastName:  "User",
		State:     "CA",
		Language:  "English",
		Demo:      true,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save demo profile: %w", err)
	}
	observability.LoggerFromContext(ctx).Infow("demo profile provisioned", "email", email)
	return p, nil
}
