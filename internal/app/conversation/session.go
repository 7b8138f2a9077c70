package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

const welcomeTemplate = "Hello! I'm your %s assistant. I'm here to help you understand your legal rights.\n\nWhat can I help you with today?"

// Session owns the transcript of one chat with the provider.
//
// At most one provider call is outstanding per Session: Submit is a no-op
// while a previous call is pending. The transcript is append-only.
type Session struct {
	id       domain.SessionID
	category domain.CategoryInfo
	provider domain.Provider
	genCfg   domain.GenerationConfig
	now      func() time.Time
	newID    func() domain.MessageID

	mu         sync.Mutex
	transcript []domain.Message
	pending    bool
	subs       map[int]chan domain.Snapshot
	nextSub    int
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides message ID generation.
func WithIDGenerator(gen func() domain.MessageID) SessionOption {
	return func(s *Session) { s.newID = gen }
}

// WithGenerationConfig overrides the sampling parameters.
func WithGenerationConfig(cfg domain.GenerationConfig) SessionOption {
	return func(s *Session) { s.genCfg = cfg }
}

// NewSession creates a fresh session for the given category. Unknown
// category keys resolve to the catalog's default category.
func NewSession(
	catalog *domain.Catalog,
	categoryKey string,
	provider domain.Provider,
	opts ...SessionOption,
) *Session {
	s := &Session{
		id:       domain.SessionID(uuid.NewString()),
		category: catalog.Resolve(categoryKey),
		provider: provider,
		genCfg:   domain.DefaultGenerationConfig(),
		now:      time.Now,
		newID:    newMessageID,
		subs:     make(map[int]chan domain.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() domain.SessionID { return s.id }

func (s *Session) Category() domain.CategoryInfo { return s.category }

// Welcome returns the introductory text shown to the user. It is not part of
// the transcript and is never sent to the provider.
func (s *Session) Welcome() string {
	return fmt.Sprintf(welcomeTemplate, s.category.Title)
}

// Snapshot returns a copy of the current transcript and pending flag.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Submit sends text as a new user turn and waits for the provider's reply.
//
// It returns false without touching the transcript when text is blank or a
// request is already pending. Provider failures are recorded as an assistant
// turn and never returned to the caller. The provider call is detached from
// ctx cancellation so an accepted request always completes.
func (s *Session) Submit(ctx context.Context, text string) (domain.Snapshot, bool) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.pending {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}

	s.transcript = append(s.transcript, domain.Message{
		ID:        s.uniqueIDLocked(),
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	})
	s.pending = true
	req := s.buildRequestLocked()
	s.publishLocked()
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", s.id,
		"category", s.category.Key,
	)
	log.Infow("submitting turn", "turns", len(req.Turns))

	start := time.Now()
	reply, err := s.generate(context.WithoutCancel(ctx), req)

	content := reply.Text
	failure := domain.FailureNone
	switch {
	case err != nil:
		pe := domain.ClassifyFailure(err)
		failure = pe.Kind
		content = domain.FailureMessage(pe)
		log.Warnw("provider call failed",
			"kind", pe.Kind,
			"status", pe.StatusCode,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
	case strings.TrimSpace(content) == "":
		content = domain.FallbackReply
		log.Warnw("provider returned no candidate text",
			"elapsed_ms", time.Since(start).Milliseconds())
	default:
		log.Infow("provider replied",
			"reply_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, domain.Message{
		ID:        s.uniqueIDLocked(),
		Role:      domain.RoleAssistant,
		Content:   content,
		CreatedAt: s.now(),
		Failure:   failure,
	})
	s.pending = false
	s.publishLocked()
	return s.snapshotLocked(), true
}

// generate turns a provider panic into a FailureUnknown error so the pending
// flag is always cleared.
func (s *Session) generate(ctx context.Context, req domain.GenerateRequest) (reply domain.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = domain.Reply{}
			err = &domain.ProviderError{Kind: domain.FailureUnknown, Detail: fmt.Sprint(r)}
		}
	}()
	return s.provider.Generate(ctx, req)
}

// Subscribe returns a channel that receives the latest snapshot after every
// change. Slow readers only see the most recent snapshot. The returned
// function unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domain.Snapshot, 1)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Close drops all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// buildRequestLocked maps the transcript to provider turns. Leading assistant
// turns are skipped: the provider requires the first turn to be the user's.
func (s *Session) buildRequestLocked() domain.GenerateRequest {
	turns := make([]domain.Turn, 0, len(s.transcript))
	for _, m := range s.transcript {
		if len(turns) == 0 && m.Role != domain.RoleUser {
			continue
		}
		turns = append(turns, domain.Turn{Role: m.Role, Text: m.Content})
	}
	return domain.GenerateRequest{
		Turns:     turns,
		Directive: s.category.Directive,
		Config:    s.genCfg,
	}
}

func (s *Session) snapshotLocked() domain.Snapshot {
	transcript := make([]domain.Message, len(s.transcript))
	copy(transcript, s.transcript)
	return domain.Snapshot{
		SessionID:  s.id,
		Category:   s.category.Key,
		Title:      s.category.Title,
		Transcript: transcript,
		Pending:    s.pending,
	}
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot; only we send, so the retry fits.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// uniqueIDLocked guards the transcript against a generator that repeats itself.
func (s *Session) uniqueIDLocked() domain.MessageID {
	id := s.newID()
	for s.hasIDLocked(id) {
		id = newMessageID()
	}
	return id
}

func (s *Session) hasIDLocked(id domain.MessageID) bool {
	for _, m := range s.transcript {
		if m.ID == id {
			return true
		}
	}
	return false
}

func newMessageID() domain.MessageID {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.MessageID(uuid.NewString())
	}
	return domain.MessageID(id.String())
}
