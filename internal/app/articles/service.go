package articles

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

// Service builds the per-topic news feed.
type Service struct {
	source  domain.ArticleSource
	catalog *domain.Catalog
}

func NewService(source domain.ArticleSource, catalog *domain.Catalog) *Service {
	return &Service{source: source, catalog: catalog}
}

type FeedOutput struct {
	Topic    domain.FeedTopic
	Articles []domain.Article
}

// Feed returns the articles for topicID. Unknown topics fall back to the
// catalog default; articles missing a title, description or URL are dropped.
func (s *Service) Feed(ctx context.Context, topicID string) (*FeedOutput, error) {
	topic := s.catalog.Topic(topicID)
	log := observability.LoggerFromContext(ctx).With("topic", topic.ID)

	found, err := s.source.Search(ctx, topic.Query)
	if err != nil {
		log.Errorw("failed to fetch articles", "error", err)
		return nil, fmt.Errorf("fetch articles for %s: %w", topic.ID, err)
	}

	kept := make([]domain.Article, 0, len(found))
	for _, a := range found {
		if a.Complete() {
			kept = append(kept, a)
		}
	}

	log.Infow("feed built", "fetched", len(found), "kept", len(kept))
	return &FeedOutput{Topic: topic, Articles: kept}, nil
}

func (s *Service) Topics() []domain.FeedTopic {
	return s.catalog.Topics()
}

// RelativeTime formats t for the feed: "Just now", "3h ago", "2d ago", and
// a calendar date after a week.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	hours := int(diff / time.Hour)
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case hours < 24*7:
		return fmt.Sprintf("%dd ago", hours/24)
	default:
		return t.Format("Jan 2, 2006")
	}
}
