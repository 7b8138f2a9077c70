package domain

import "context"

// Provider defines how a chat session talks to the generative-language service.
// Failures should be reported as *ProviderError so they can be classified.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (Reply, error)
}

// SessionHandle is the part of a live chat session the registry needs.
type SessionHandle interface {
	ID() SessionID
}

// SessionStore keeps live sessions for the lifetime of the process.
type SessionStore[S SessionHandle] interface {
	CreateSession(session S) error
	GetSession(id SessionID) (S, error)
	DeleteSession(id SessionID) error
	CountSessions() int
}

// ProfileStore defines profile persistence.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, email string) (*Profile, error)
}

// ArticleSource lists articles for a free-text query.
type ArticleSource interface {
	Search(ctx context.Context, query string) ([]Article, error)
}
