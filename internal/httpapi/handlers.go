package httpapi

import (
	"context"
	"net/http"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/auth"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/forms"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/migration"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/reference"
	"ev-tracker/internal/reporting"
	"ev-tracker/internal/scripts"
	"ev-tracker/internal/team"
	"ev-tracker/internal/workflow"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Team        *team.Service
	Migrations  *migration.Service
	Users       *enduser.Service
	Numbers     *phonenumber.Service
	Links       *magiclink.Service
	Subscribers notify.SubscriberRepository
	Reference   *reference.Service
	Scripts     *scripts.Service
	Reporting   *reporting.Service

	// Outbox is optional; when set its counters are reported on /healthz.
	Outbox *notify.Outbox
	// Ping is optional; it checks the database on /healthz.
	Ping func(ctx context.Context) error
}

func identity(c *gin.Context) (auth.Identity, bool) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		respondError(c, apperr.Unauthorized("authentication required"))
		return auth.Identity{}, false
	}
	return id, true
}

func (h Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	if h.Outbox != nil {
		body["notifications"] = h.Outbox.Stats()
	}
	c.JSON(status, body)
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionResponse struct {
	Member team.Member `json:"member"`
	auth.TokenPair
}

func (h Handlers) issue(c *gin.Context, status int, m team.Member) {
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{UserID: m.ID, Email: m.Email, Name: m.Name, Role: m.Role})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, sessionResponse{Member: m, TokenPair: pair})
}

// Setup creates the first admin account and signs it in.
func (h Handlers) Setup(c *gin.Context) {
	var req team.SetupInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Team.Setup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, m)
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.Team.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, m)
}

// Refresh exchanges a refresh token for a new pair. Role is re-read from the team store.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		respondError(c, apperr.Unauthorized("invalid refresh token"))
		return
	}
	m, err := h.Team.Active(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, m)
}

func (h Handlers) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Team.Get(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// --- Workflow metadata ---

// Workflow describes the stage table and the typed form schemas the client renders.
func (h Handlers) Workflow(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stages":             workflow.Catalog(),
		"phase_tasks":        forms.PhaseTasks.Fields(),
		"site_questionnaire": forms.Questionnaire.Fields(),
	})
}
