package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/idefend/internal/domain"
)

const profilesCollection = "profiles"

// Store is a Firestore-backed domain.ProfileStore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project (IDEFEND_GCP_PROJECT).
// FIRESTORE_EMULATOR_HOST is honored by the client library.
func NewStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) profileDoc(email string) *firestore.DocumentRef {
	return s.client.Collection(profilesCollection).Doc(profileKey(email))
}

// profileKey keys documents by normalized email so lookups ignore case.
func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type profileDoc struct {
	Email        string    `firestore:"email"`
	FirstName    string    `firestore:"first_name"`
	LastName     string    `firestore:"last_name"`
	State        string    `firestore:"state"`
	Language     string    `firestore:"language"`
	PasswordHash []byte    `firestore:"password_hash"`
	Demo         bool      `firestore:"demo"`
	CreatedAt    time.Time `firestore:"created_at"`
}

func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	doc := profileDoc{
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		State:        p.State,
		Language:     p.Language,
		PasswordHash: p.PasswordHash,
		Demo:         p.Demo,
		CreatedAt:    p.CreatedAt,
	}

	if _, err := s.profileDoc(p.Email).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveProfile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, email string) (*domain.Profile, error) {
	snap, err := s.profileDoc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return &domain.Profile{
		Email:        doc.Email,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		State:        doc.State,
		Language:     doc.Language,
		PasswordHash: doc.PasswordHash,
		Demo:         doc.Demo,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
