package httpapi

import (
	"net/http"

	"ev-tracker/internal/enduser"

	"github.com/gin-gonic/gin"
)

// Customer-facing routes. The token in the path is the only credential.

func (h Handlers) PublicEstimate(c *gin.Context) {
	out, err := h.Migrations.EstimateForToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type acceptRequest struct {
	// Name is the customer signing off on the estimate.
	Name string `json:"name" binding:"required"`
}

func (h Handlers) PublicAcceptEstimate(c *gin.Context) {
	var req acceptRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.AcceptEstimateByToken(c.Request.Context(), c.Param("token"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accepted":    true,
		"accepted_at": m.Estimate.AcceptedAt,
		"accepted_by": m.Estimate.AcceptedBy,
	})
}

func (h Handlers) PublicCollect(c *gin.Context) {
	out, err := h.Migrations.CollectForToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type collectRequest struct {
	Users []enduser.CustomerEntry `json:"users" binding:"required,dive"`
}

func (h Handlers) PublicSubmitCollect(c *gin.Context) {
	var req collectRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Migrations.SubmitUsersByToken(c.Request.Context(), c.Param("token"), req.Users)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": n})
}

func (h Handlers) PublicQuestionnaire(c *gin.Context) {
	out, err := h.Migrations.QuestionnaireForToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) PublicSubmitQuestionnaire(c *gin.Context) {
	var patch map[string]any
	if !bind(c, &patch) {
		return
	}
	m, err := h.Migrations.SubmitQuestionnaireByToken(c.Request.Context(), c.Param("token"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"values": m.SiteQuestionnaire})
}
