package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/PabloGalante/idefend/internal/app/articles"
	"github.com/PabloGalante/idefend/internal/app/conversation"
	"github.com/PabloGalante/idefend/internal/app/profile"
	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

type Server struct {
	conv     *conversation.Service
	articles *articles.Service
	profiles *profile.Service
	now      func() time.Time
}

// NewServer wires the services into an echo instance. articles and profiles
// may be nil; their routes then answer 503.
func NewServer(conv *conversation.Service, feed *articles.Service, profiles *profile.Service) *echo.Echo {
	s := &Server{
		conv:     conv,
		articles: feed,
		profiles: profiles,
		now:      time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(withRequestLogging())
	e.Use(withCORS())

	s.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers the API routes with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.handleHealthz)
	e.GET("/categories", s.handleCategories)

	e.POST("/sessions", s.handleCreateSession)
	e.GET("/sessions/:id", s.handleGetSession)
	e.DELETE("/sessions/:id", s.handleDeleteSession)
	e.POST("/sessions/:id/messages", s.handleSendMessage)

	e.GET("/articles", s.handleArticles)

	e.POST("/profiles/signup", s.handleSignUp)
	e.POST("/profiles/signin", s.handleSignIn)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type categoryResponse struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createSessionRequest struct {
	Category string `json:"category"`
}

type createSessionResponse struct {
	Session sessionResponse `json:"session"`
	Welcome string          `json:"welcome_message"`
}

type sessionResponse struct {
	ID       string            `json:"id"`
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Pending  bool              `json:"pending"`
	Messages []messageResponse `json:"messages"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Failure   string    `json:"failure,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type topicResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type articleResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Age         string    `json:"age"`
}

type feedResponse struct {
	Topic    topicResponse     `json:"topic"`
	Topics   []topicResponse   `json:"topics"`
	Articles []articleResponse `json:"articles"`
}

type signUpRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	State           string `json:"state"`
	Language        string `json:"language"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	State     string `json:"state"`
	Language  string `json:"language"`
	Demo      bool   `json:"demo,omitempty"`
}

// ─────────────────────────────────────────────
// Conversation handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategories(c echo.Context) error {
	cats := s.conv.Categories()
	out := make([]categoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryResponse{
			Key:         string(cat.Key),
			Title:       cat.Title,
			Description: cat.Description,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	out, err := s.conv.StartSession(c.Request().Context(), conversation.StartSessionInput{
		Category: req.Category,
	})
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusCreated, createSessionResponse{
		Session: toSessionResponse(out.Snapshot),
		Welcome: out.Welcome,
	})
}

func (s *Server) handleGetSession(c echo.Context) error {
	session, err := s.conv.GetSession(c.Request().Context(), domain.SessionID(c.Param("id")))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(session.Snapshot()))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	if err := s.conv.EndSession(c.Request().Context(), domain.SessionID(c.Param("id"))); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSendMessage blocks until the provider answers. Turns the session
// ignores come back as 400 (blank) or 409 (pending) with the current snapshot.
func (s *Server) handleSendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	snap, err := s.conv.SendMessage(c.Request().Context(), conversation.SendMessageInput{
		SessionID: domain.SessionID(c.Param("id")),
		Text:      req.Text,
	})
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "text is required",
			"session": toSessionResponse(snap),
		})
	case errors.Is(err, domain.ErrSessionBusy):
		return c.JSON(http.StatusConflict, map[string]any{
			"error":   "a reply is still pending",
			"session": toSessionResponse(snap),
		})
	case err != nil:
		return sessionError(c, err)
	}

	return c.JSON(http.StatusOK, toSessionResponse(snap))
}

// ─────────────────────────────────────────────
// Articles and profiles
// ─────────────────────────────────────────────

func (s *Server) handleArticles(c echo.Context) error {
	if s.articles == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "article feed not configured")
	}

	out, err := s.articles.Feed(c.Request().Context(), c.QueryParam("topic"))
	if err != nil {
		observability.LoggerFromContext(c.Request().Context()).Errorw("feed failed", "error", err)
		return errorJSON(c, http.StatusBadGateway, "failed to fetch articles")
	}

	now := s.now()
	resp := feedResponse{
		Topic:    topicResponse{ID: out.Topic.ID, Label: out.Topic.Label},
		Articles: make([]articleResponse, 0, len(out.Articles)),
	}
	for _, t := range s.articles.Topics() {
		resp.Topics = append(resp.Topics, topicResponse{ID: t.ID, Label: t.Label})
	}
	for _, a := range out.Articles {
		resp.Articles = append(resp.Articles, articleResponse{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			ImageURL:    a.ImageURL,
			PublishedAt: a.PublishedAt,
			Age:         articles.RelativeTime(a.PublishedAt, now),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSignUp(c echo.Context) error {
	if s.profiles == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "profiles not configured")
	}

	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	p, err := s.profiles.SignUp(c.Request().Context(), profile.SignUpInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		State:           req.State,
		Language:        req.Language,
	})
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusCreated, toProfileResponse(p))
}

func (s *Server) handleSignIn(c echo.Context) error {
	if s.profiles == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "profiles not configured")
	}

	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	p, err := s.profiles.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func toSessionResponse(snap domain.Snapshot) sessionResponse {
	msgs := make([]messageResponse, 0, len(snap.Transcript))
	for _, m := range snap.Transcript {
		msgs = append(msgs, messageResponse{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Failure:   string(m.Failure),
		})
	}
	return sessionResponse{
		ID:       string(snap.SessionID),
		Category: string(snap.Category),
		Title:    snap.Title,
		Pending:  snap.Pending,
		Messages: msgs,
	}
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		State:     p.State,
		Language:  p.Language,
		Demo:      p.Demo,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return errorJSON(c, http.StatusBadRequest, msg)
}

func internalError(c echo.Context, err error) error {
	observability.LoggerFromContext(c.Request().Context()).Errorw("request failed", "error", err)
	return errorJSON(c, http.StatusInternalServerError, "internal server error")
}

func sessionError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return errorJSON(c, http.StatusNotFound, "session not found")
	}
	return internalError(c, err)
}

func profileError(c echo.Context, err error) error {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, domain.ErrProfileExists):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
	default:
		return internalError(c, err)
	}
}
