package conversation

import (
	"context"
	"strings"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

// Service keeps the live chat sessions of the process and routes turns to them.
type Service struct {
	provider domain.Provider
	catalog  *domain.Catalog
	sessions domain.SessionStore[*Session]
	opts     []SessionOption
}

func NewService(
	provider domain.Provider,
	catalog *domain.Catalog,
	sessions domain.SessionStore[*Session],
	opts ...SessionOption,
) *Service {
	return &Service{
		provider: provider,
		catalog:  catalog,
		sessions: sessions,
		opts:     opts,
	}
}

type StartSessionInput struct {
	Category string
}

type StartSessionOutput struct {
	Session  *Session
	Welcome  string
	Snapshot domain.Snapshot
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	session := NewSession(s.catalog, in.Category, s.provider, s.opts...)

	log := observability.LoggerFromContext(ctx).With(
		"requested_category", in.Category,
		"category", session.Category().Key,
	)

	if err := s.sessions.CreateSession(session); err != nil {
		log.Errorw("failed to create session", "error", err)
		return nil, err
	}

	log.Infow("session started", "session_id", session.ID())

	return &StartSessionOutput{
		Session:  session,
		Welcome:  session.Welcome(),
		Snapshot: session.Snapshot(),
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

// SendMessage submits a turn to an existing session. It returns
// domain.ErrEmptyMessage or domain.ErrSessionBusy when the session ignored the
// turn; the returned snapshot is valid in both cases.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (domain.Snapshot, error) {
	session, err := s.sessions.GetSession(in.SessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap, accepted := session.Submit(ctx, in.Text)
	if !accepted {
		if strings.TrimSpace(in.Text) == "" {
			return snap, domain.ErrEmptyMessage
		}
		observability.LoggerFromContext(ctx).Infow("turn rejected, request pending",
			"session_id", in.SessionID)
		return snap, domain.ErrSessionBusy
	}
	return snap, nil
}

func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (*Session, error) {
	return s.sessions.GetSession(id)
}

// EndSession discards a session and its transcript.
func (s *Service) EndSession(ctx context.Context, id domain.SessionID) error {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		return err
	}
	session.Close()
	if err := s.sessions.DeleteSession(id); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Infow("session ended", "session_id", id)
	return nil
}

func (s *Service) Categories() []domain.CategoryInfo {
	return s.catalog.Categories()
}
