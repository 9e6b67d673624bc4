package httpapi

import (
	"ev-tracker/internal/auth"
	"ev-tracker/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Middleware holds the cross-cutting handlers Register attaches to route groups.
type Middleware struct {
	// Public wraps the customer routes, typically a rate limiter. Optional.
	Public gin.HandlerFunc
}

// Register wires every route under /api.
// Keep this file free of business logic. Handlers delegate to internal modules.
func Register(r gin.IRouter, h Handlers, mw Middleware) {
	useJSONFieldNames()

	api := r.Group("/api")
	api.GET("/healthz", h.Health)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/setup", h.Setup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.GET("/me", auth.RequireAccessToken(h.Auth), h.Me)
	}

	public := api.Group("/public")
	if mw.Public != nil {
		public.Use(mw.Public)
	}
	{
		public.GET("/estimate/:token", h.PublicEstimate)
		public.POST("/estimate/:token/accept", h.PublicAcceptEstimate)
		public.GET("/collect/:token", h.PublicCollect)
		public.POST("/collect/:token", h.PublicSubmitCollect)
		public.GET("/questionnaire/:token", h.PublicQuestionnaire)
		public.POST("/questionnaire/:token", h.PublicSubmitQuestionnaire)
	}

	// Everything below requires a staff access token. Viewers are read-only.
	staff := api.Group("")
	staff.Use(auth.RequireAccessToken(h.Auth), rbac.BlockViewerWrites())

	migrations := staff.Group("/migrations")
	{
		migrations.GET("", h.ListMigrations)
		migrations.POST("", h.CreateMigration)
		migrations.GET("/:id", h.GetMigration)
		migrations.PATCH("/:id", h.UpdateMigration)
		migrations.DELETE("/:id", rbac.RequireAnyRole(rbac.RoleAdmin), h.DeleteMigration)
		migrations.GET("/:id/progress", h.MigrationProgress)

		migrations.PUT("/:id/estimate", h.UpdateEstimate)
		migrations.POST("/:id/accept-estimate", h.AcceptEstimate)
		migrations.POST("/:id/submit-verizon", h.SubmitCarrier)
		migrations.POST("/:id/complete-verizon", h.CompleteCarrier)
		migrations.POST("/:id/submit-loa", h.SubmitLOA)
		migrations.POST("/:id/set-foc", h.SetFOC)
		migrations.POST("/:id/complete-porting", h.CompletePorting)
		migrations.PUT("/:id/stage", h.SetStage)
		migrations.PATCH("/:id/phase-tasks", h.UpdatePhaseTasks)
		migrations.PATCH("/:id/user-config", h.UpdateUserConfig)
		migrations.PATCH("/:id/questionnaire", h.UpdateQuestionnaire)

		migrations.GET("/:id/magic-links", h.ListLinks)
		migrations.POST("/:id/magic-links", h.IssueLink)
		migrations.DELETE("/:id/magic-links/:link_id", h.RevokeLink)

		migrations.GET("/:id/subscribers", h.ListSubscribers)
		migrations.POST("/:id/subscribers", h.Subscribe)
		migrations.DELETE("/:id/subscribers/:member_id", h.Unsubscribe)
	}

	users := staff.Group("/users/migration/:migration_id")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:user_id", h.GetUser)
		users.PATCH("/:user_id", h.UpdateUser)
		users.DELETE("/:user_id", h.DeleteUser)
	}

	numbers := staff.Group("/phone-numbers/migration/:migration_id")
	{
		numbers.GET("", h.ListNumbers)
		numbers.POST("", h.CreateNumber)
		numbers.GET("/:number_id", h.GetNumber)
		numbers.PATCH("/:number_id", h.UpdateNumber)
		numbers.PUT("/:number_id/status", h.SetNumberStatus)
		numbers.DELETE("/:number_id", h.DeleteNumber)
	}

	staff.GET("/scripts/migrations/:id/teams", h.TeamsScript)
	staff.GET("/dashboard", h.Dashboard)
	staff.GET("/workflow", h.Workflow)

	settings := staff.Group("/settings")
	for segment, kind := range referenceKinds {
		settings.GET("/"+segment, h.ListReference(kind))
		settings.POST("/"+segment, rbac.RequireAnyRole(rbac.RoleAdmin), h.CreateReference(kind))
		settings.DELETE("/"+segment+"/:item_id", rbac.RequireAnyRole(rbac.RoleAdmin), h.DeactivateReference(kind))
	}

	teamGroup := staff.Group("/team")
	{
		teamGroup.GET("", h.ListTeam)
		teamGroup.POST("", rbac.RequireAnyRole(rbac.RoleAdmin), h.CreateTeamMember)
		teamGroup.PATCH("/:member_id", rbac.RequireAnyRole(rbac.RoleAdmin), h.UpdateTeamMember)
		teamGroup.DELETE("/:member_id", rbac.RequireAnyRole(rbac.RoleAdmin), h.DeactivateTeamMember)
	}
}
