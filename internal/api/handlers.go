package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"textlens/internal/auth"
	"textlens/internal/directory"
	"textlens/internal/identity"
	"textlens/internal/metrics"
	"textlens/internal/provider"
	"textlens/internal/vision"
)

// minTextLength is the shortest text accepted for analysis.
const minTextLength = 3

// Handler wires HTTP routes to the identity flow and the analysis services.
type Handler struct {
	verifier   *identity.Verifier
	directory  *directory.Directory
	auth       *auth.Service
	aggregator *provider.Aggregator
	classifier *vision.Classifier
	metrics    *metrics.Collector
	registry   *prometheus.Registry
	db         *sql.DB
	log        zerolog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(
	verifier *identity.Verifier,
	dir *directory.Directory,
	authService *auth.Service,
	aggregator *provider.Aggregator,
	classifier *vision.Classifier,
	collector *metrics.Collector,
	registry *prometheus.Registry,
	db *sql.DB,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		verifier:   verifier,
		directory:  dir,
		auth:       authService,
		aggregator: aggregator,
		classifier: classifier,
		metrics:    collector,
		registry:   registry,
		db:         db,
		log:        log,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/auth0-login-redirect", h.loginRedirect)
	router.GET("/authenticate", h.authenticate)

	protected := router.Group("/")
	protected.Use(h.auth.Middleware())
	protected.POST("/process-text", h.processData)

	router.GET("/healthz", h.healthz)
	if h.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))
	}
}

// loginRedirect sends the caller to the provider's hosted authorization page.
func (h *Handler) loginRedirect(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, h.verifier.LoginURL())
}

// authenticate exchanges the authorization code, resolves the local user
// record and returns a session token.
func (h *Handler) authenticate(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code query parameter is required"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUpstreamAuth):
			h.metrics.RecordAuth("upstream_error")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "error fetching access token"})
		case errors.Is(err, identity.ErrInvalidToken):
			h.metrics.RecordAuth("invalid_token")
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		default:
			h.metrics.RecordAuth("internal_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		}
		return
	}

	user, err := h.directory.ResolveOrCreate(c.Request.Context(), claims.Email, claims.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("resolve user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
		return
	}

	sessionToken, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.metrics.RecordAuth("ok")
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"access_token": sessionToken,
	})
}

type processRequest struct {
	Text     *string `json:"text"`
	ImageURL *string `json:"image_url"`
}

// processData routes text to the provider fan-out and image URLs to the
// classifier. A request carrying neither field returns a null body, not an
// error; that mirrors the documented upstream behavior.
func (h *Handler) processData(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Text != nil {
		if utf8.RuneCountInString(*req.Text) < minTextLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text must be at least 3 characters"})
			return
		}
		results := h.aggregator.ProcessText(c.Request.Context(), *req.Text)
		c.JSON(http.StatusOK, results)
		return
	}

	if req.ImageURL != nil {
		if !isValidHTTPURL(*req.ImageURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image_url must be a valid http(s) URL"})
			return
		}
		predictions, err := h.classifier.Classify(c.Request.Context(), *req.ImageURL)
		if err != nil {
			switch {
			case errors.Is(err, vision.ErrImageFetch):
				h.metrics.RecordClassify("fetch_error")
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not fetch or decode image"})
			case errors.Is(err, vision.ErrModel):
				h.metrics.RecordClassify("model_error")
				h.log.Error().Err(err).Msg("image inference")
				c.JSON(http.StatusBadGateway, gin.H{"error": "image classification failed"})
			default:
				h.metrics.RecordClassify("error")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "image classification failed"})
			}
			return
		}
		h.metrics.RecordClassify("ok")
		c.JSON(http.StatusOK, predictions)
		return
	}

	// Neither field present: an explicit no-op, kept from the original API.
	h.log.Debug().Msg("process request without text or image_url")
	c.JSON(http.StatusOK, nil)
}

// healthz reports liveness and database reachability.
func (h *Handler) healthz(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isValidHTTPURL(raw string) bool {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
