package articles_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/idefend/internal/app/articles"
	"github.com/PabloGalante/idefend/internal/config"
	"github.com/PabloGalante/idefend/internal/domain"
)

type stubSource struct {
	queries  []string
	articles []domain.Article
	err      error
}

func (s *stubSource) Search(ctx context.Context, query string) ([]domain.Article, error) {
	s.queries = append(s.queries, query)
	return s.articles, s.err
}

func newService(t *testing.T, src domain.ArticleSource) *articles.Service {
	t.Helper()
	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)
	return articles.NewService(src, catalog)
}

func TestFeedFiltersIncompleteArticles(t *testing.T) {
	src := &stubSource{articles: []domain.Article{
		{Title: "A", Description: "a", URL: "https://a"},
		{Title: "B", URL: "https://b"},
		{Title: "", Description: "c", URL: "https://c"},
		{Title: "D", Description: "d"},
	}}

	out, err := newService(t, src).Feed(context.Background(), "tenant")
	require.NoError(t, err)

	assert.Equal(t, "tenant", out.Topic.ID)
	assert.Equal(t, []string{"tenant rights OR housing law OR eviction"}, src.queries)
	require.Len(t, out.Articles, 1)
	assert.Equal(t, "A", out.Articles[0].Title)
}

func TestFeedUnknownTopicUsesDefault(t *testing.T) {
	src := &stubSource{}

	out, err := newService(t, src).Feed(context.Background(), "immigration")
	require.NoError(t, err)
	assert.Equal(t, "all", out.Topic.ID)
	assert.Equal(t, []string{"legal rights OR civil rights OR law"}, src.queries)
	assert.Empty(t, out.Articles)
}

func TestFeedWrapsSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := newService(t, &stubSource{err: boom}).Feed(context.Background(), "police")
	assert.ErrorIs(t, err, boom)
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Minute), "Just now"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-23*time.Hour - 59*time.Minute), "23h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{now.Add(-8 * 24 * time.Hour), "Oct 11, 2026"},
		{time.Time{}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, articles.RelativeTime(tc.at, now))
	}
}
