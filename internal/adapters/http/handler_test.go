package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpadapter "github.com/PabloGalante/idefend/internal/adapters/http"
	"github.com/PabloGalante/idefend/internal/adapters/llm"
	"github.com/PabloGalante/idefend/internal/adapters/storage/memory"
	"github.com/PabloGalante/idefend/internal/app/articles"
	"github.com/PabloGalante/idefend/internal/app/conversation"
	"github.com/PabloGalante/idefend/internal/app/profile"
	"github.com/PabloGalante/idefend/internal/config"
	"github.com/PabloGalante/idefend/internal/domain"
)

type stubSource struct{}

func (stubSource) Search(ctx context.Context, query string) ([]domain.Article, error) {
	return []domain.Article{
		{Title: "Know your rights", Description: "d", URL: "https://example.com/1", PublishedAt: time.Now().Add(-2 * time.Hour)},
		{Title: "Incomplete", URL: "https://example.com/2"},
	}, nil
}

// blockingProvider holds every call until release is closed.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Reply, error) {
	p.started <- struct{}{}
	<-p.release
	return domain.Reply{Text: "done"}, nil
}

func newTestServer(t *testing.T, provider domain.Provider) *echo.Echo {
	t.Helper()

	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)

	convSvc := conversation.NewService(provider, catalog, memory.NewSessionStore[*conversation.Session]())
	feedSvc := articles.NewService(stubSource{}, catalog)
	profileSvc := profile.NewService(memory.NewProfileStore(), profile.Options{HashCost: bcrypt.MinCost})

	return httpadapter.NewServer(convSvc, feedSvc, profileSvc)
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionBody struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Pending  bool   `json:"pending"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCategories(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cats := decode[[]map[string]string](t, rec)
	require.Len(t, cats, 4)
	assert.Equal(t, "police", cats[0]["key"])
	_, hasDirective := cats[0]["directive"]
	assert.False(t, hasDirective)
}

func TestCreateSessionAndSendMessage(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())

	rec := do(t, e, http.MethodPost, "/sessions", `{"category":"tenants"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[struct {
		Session sessionBody `json:"session"`
		Welcome string      `json:"welcome_message"`
	}](t, rec)
	assert.Equal(t, "tenants", created.Session.Category)
	assert.Contains(t, created.Welcome, "Tenant Rights assistant")
	assert.Empty(t, created.Session.Messages)

	rec = do(t, e, http.MethodPost, "/sessions/"+created.Session.ID+"/messages", `{"text":"  My landlord kept my deposit  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap := decode[sessionBody](t, rec)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "user", snap.Messages[0].Role)
	assert.Equal(t, "My landlord kept my deposit", snap.Messages[0].Content)
	assert.Equal(t, "assistant", snap.Messages[1].Role)
	assert.False(t, snap.Pending)

	rec = do(t, e, http.MethodGet, "/sessions/"+created.Session.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sessionBody](t, rec).Messages, 2)
}

func TestUnknownCategoryFallsBackToDefault(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodPost, "/sessions", `{"category":"immigration"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[struct {
		Session sessionBody `json:"session"`
	}](t, rec)
	assert.Equal(t, "police", created.Session.Category)
}

func TestSendBlankMessageIsRejected(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodPost, "/sessions", `{}`)
	id := decode[struct {
		Session sessionBody `json:"session"`
	}](t, rec).Session.ID

	rec = do(t, e, http.MethodPost, "/sessions/"+id+"/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/sessions/"+id, "")
	assert.Empty(t, decode[sessionBody](t, rec).Messages)
}

func TestSendWhilePendingConflicts(t *testing.T) {
	provider := &blockingProvider{started: make(chan struct{}, 1), release: make(chan struct{})}
	e := newTestServer(t, provider)

	rec := do(t, e, http.MethodPost, "/sessions", `{"category":"workers"}`)
	id := decode[struct {
		Session sessionBody `json:"session"`
	}](t, rec).Session.ID

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(t, e, http.MethodPost, "/sessions/"+id+"/messages", `{"text":"first"}`)
	}()
	<-provider.started

	rec = do(t, e, http.MethodPost, "/sessions/"+id+"/messages", `{"text":"second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(provider.release)
	first := <-done
	require.Equal(t, http.StatusOK, first.Code)
	snap := decode[sessionBody](t, first)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "first", snap.Messages[0].Content)
}

func TestSessionNotFound(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())

	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/sessions/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodPost, "/sessions/missing/messages", `{"text":"hi"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodDelete, "/sessions/missing", "").Code)
}

func TestDeleteSession(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodPost, "/sessions", `{}`)
	id := decode[struct {
		Session sessionBody `json:"session"`
	}](t, rec).Session.ID

	assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, "/sessions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/sessions/"+id, "").Code)
}

func TestArticlesFeed(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodGet, "/articles?topic=nope", "")
	require.Equal(t, http.StatusOK, rec.Code)

	feed := decode[struct {
		Topic struct {
			ID string `json:"id"`
		} `json:"topic"`
		Topics   []map[string]string `json:"topics"`
		Articles []map[string]any    `json:"articles"`
	}](t, rec)
	assert.Equal(t, "all", feed.Topic.ID)
	assert.Len(t, feed.Topics, 5)
	require.Len(t, feed.Articles, 1)
	assert.Equal(t, "2h ago", feed.Articles[0]["age"])
}

func TestSignUpAndSignIn(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())

	body := `{"first_name":"Lee","last_name":"Park","email":"lee@example.com","password":"supersecret","confirm_password":"supersecret","state":"WA","language":"English"}`
	rec := do(t, e, http.MethodPost, "/profiles/signup", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, e, http.MethodPost, "/profiles/signup", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/profiles/signin", `{"email":"lee@example.com","password":"supersecret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lee", decode[map[string]any](t, rec)["first_name"])

	rec = do(t, e, http.MethodPost, "/profiles/signin", `{"email":"lee@example.com","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUpValidationError(t *testing.T) {
	e := newTestServer(t, llm.NewMockLLM())
	rec := do(t, e, http.MethodPost, "/profiles/signup",
		`{"first_name":"Lee","last_name":"Park","email":"lee@example.com","password":"short","confirm_password":"short","state":"WA","language":"English"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[map[string]string](t, rec)
	assert.Equal(t, "password", got["field"])
	assert.True(t, strings.HasPrefix(got["error"], "Password must be"))
}

func TestHandlersWithoutOptionalServices(t *testing.T) {
	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)
	convSvc := conversation.NewService(llm.NewMockLLM(), catalog, memory.NewSessionStore[*conversation.Session]())
	e := httpadapter.NewServer(convSvc, nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, e, http.MethodGet, "/articles", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, e, http.MethodPost, "/profiles/signin", `{}`).Code)
}
