package httpapi

import (
	"net/http"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/migration"
	"ev-tracker/internal/workflow"

	"github.com/gin-gonic/gin"
)

// --- Migrations ---

func (h Handlers) ListMigrations(c *gin.Context) {
	out, err := h.Migrations.List(c.Request.Context(), migration.Filter{
		Stage:      workflow.Stage(c.Query("stage")),
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateMigration(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.CreateInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.Create(c.Request.Context(), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h Handlers) GetMigration(c *gin.Context) {
	m, err := h.Migrations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) UpdateMigration(c *gin.Context) {
	var req migration.UpdateInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) DeleteMigration(c *gin.Context) {
	if err := h.Migrations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) MigrationProgress(c *gin.Context) {
	p, err := h.Migrations.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Transitions ---

func (h Handlers) UpdateEstimate(c *gin.Context) {
	var req migration.EstimateInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.UpdateEstimate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) AcceptEstimate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Migrations.AcceptEstimate(c.Request.Context(), c.Param("id"), id.Actor())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) SubmitCarrier(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.CarrierSubmitInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.SubmitCarrier(c.Request.Context(), c.Param("id"), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) CompleteCarrier(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.CarrierCompleteInput
	if !bindOptional(c, &req) {
		return
	}
	m, err := h.Migrations.CompleteCarrier(c.Request.Context(), c.Param("id"), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) SubmitLOA(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.LOAInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.SubmitLOA(c.Request.Context(), c.Param("id"), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) SetFOC(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.FOCInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.SetFOC(c.Request.Context(), c.Param("id"), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type completePortingResponse struct {
	Migration     migration.Migration `json:"migration"`
	NumbersPorted int                 `json:"numbers_ported"`
}

func (h Handlers) CompletePorting(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req migration.CompletePortingInput
	if !bindOptional(c, &req) {
		return
	}
	m, n, err := h.Migrations.CompletePorting(c.Request.Context(), c.Param("id"), id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, completePortingResponse{Migration: m, NumbersPorted: n})
}

type stageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

func (h Handlers) SetStage(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req stageRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.SetStage(c.Request.Context(), c.Param("id"), id.Actor(), req.Stage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) UpdatePhaseTasks(c *gin.Context) {
	var patch map[string]any
	if !bind(c, &patch) {
		return
	}
	m, err := h.Migrations.UpdatePhaseTasks(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) UpdateUserConfig(c *gin.Context) {
	var req migration.UserConfigInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.UpdateUserConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) UpdateQuestionnaire(c *gin.Context) {
	var patch map[string]any
	if !bind(c, &patch) {
		return
	}
	m, err := h.Migrations.UpdateQuestionnaire(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// --- Magic links ---

func (h Handlers) ListLinks(c *gin.Context) {
	out, err := h.Links.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) IssueLink(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req magiclink.IssueInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Migrations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	issued, err := h.Links.Issue(c.Request.Context(), m.ID, id.Actor(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issued)
}

func (h Handlers) RevokeLink(c *gin.Context) {
	if err := h.Links.Revoke(c.Request.Context(), c.Param("id"), c.Param("link_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Subscribers ---

type subscribeRequest struct {
	// MemberID defaults to the caller.
	MemberID string `json:"member_id"`
}

func (h Handlers) ListSubscribers(c *gin.Context) {
	out, err := h.Subscribers.Recipients(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) Subscribe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req subscribeRequest
	if !bindOptional(c, &req) {
		return
	}
	member := req.MemberID
	if member == "" {
		member = id.UserID
	}
	if _, err := h.Migrations.Get(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	if err := h.Subscribers.Subscribe(c.Request.Context(), c.Param("id"), member); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"migration_id": c.Param("id"), "member_id": member})
}

func (h Handlers) Unsubscribe(c *gin.Context) {
	member := c.Param("member_id")
	if member == "" {
		respondError(c, apperr.BadRequest("member_id is required"))
		return
	}
	if err := h.Subscribers.Unsubscribe(c.Request.Context(), c.Param("id"), member); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
