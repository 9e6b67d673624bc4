package httpapi

import (
	"net/http"

	"ev-tracker/internal/enduser"
	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/reference"
	"ev-tracker/internal/team"

	"github.com/gin-gonic/gin"
)

// --- End users ---

func (h Handlers) ListUsers(c *gin.Context) {
	out, err := h.Users.List(c.Request.Context(), c.Param("migration_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateUser(c *gin.Context) {
	var req enduser.CreateInput
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.Create(c.Request.Context(), c.Param("migration_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h Handlers) GetUser(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("migration_id"), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handlers) UpdateUser(c *gin.Context) {
	var req enduser.UpdateInput
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.Update(c.Request.Context(), c.Param("migration_id"), c.Param("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handlers) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), c.Param("migration_id"), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Phone numbers ---

func (h Handlers) ListNumbers(c *gin.Context) {
	out, err := h.Numbers.List(c.Request.Context(), c.Param("migration_id"), phonenumber.Filter{
		PortingStatus: phonenumber.PortingStatus(c.Query("porting_status")),
		Type:          phonenumber.Type(c.Query("number_type")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateNumber(c *gin.Context) {
	var req phonenumber.CreateInput
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.Create(c.Request.Context(), c.Param("migration_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h Handlers) GetNumber(c *gin.Context) {
	n, err := h.Numbers.Get(c.Request.Context(), c.Param("migration_id"), c.Param("number_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h Handlers) UpdateNumber(c *gin.Context) {
	var req phonenumber.UpdateInput
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.Update(c.Request.Context(), c.Param("migration_id"), c.Param("number_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

type numberStatusRequest struct {
	PortingStatus phonenumber.PortingStatus `json:"porting_status" binding:"required"`
}

func (h Handlers) SetNumberStatus(c *gin.Context) {
	var req numberStatusRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.SetStatus(c.Request.Context(), c.Param("migration_id"), c.Param("number_id"), req.PortingStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h Handlers) DeleteNumber(c *gin.Context) {
	if err := h.Numbers.Delete(c.Request.Context(), c.Param("migration_id"), c.Param("number_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Scripts ---

func (h Handlers) TeamsScript(c *gin.Context) {
	out, err := h.Scripts.Teams(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="teams-`+c.Param("id")+`.ps1"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(out))
}

// --- Reference data ---

// referenceKinds maps /settings path segments to reference kinds.
var referenceKinds = map[string]reference.Kind{
	"carriers":               reference.KindCarrier,
	"voice-routing-policies": reference.KindVoiceRoutingPolicy,
	"dial-plans":             reference.KindDialPlan,
}

func (h Handlers) ListReference(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := h.Reference.List(c.Request.Context(), kind, c.Query("include_inactive") == "true")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (h Handlers) CreateReference(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reference.CreateInput
		if !bind(c, &req) {
			return
		}
		it, err := h.Reference.Create(c.Request.Context(), kind, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, it)
	}
}

func (h Handlers) DeactivateReference(kind reference.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := h.Reference.Deactivate(c.Request.Context(), kind, c.Param("item_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

// --- Team ---

func (h Handlers) ListTeam(c *gin.Context) {
	out, err := h.Team.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateTeamMember(c *gin.Context) {
	var req team.CreateInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Team.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h Handlers) UpdateTeamMember(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req team.UpdateInput
	if !bind(c, &req) {
		return
	}
	m, err := h.Team.Update(c.Request.Context(), id.UserID, c.Param("member_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) DeactivateTeamMember(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	m, err := h.Team.Deactivate(c.Request.Context(), id.UserID, c.Param("member_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// --- Dashboard ---

func (h Handlers) Dashboard(c *gin.Context) {
	out, err := h.Reporting.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
