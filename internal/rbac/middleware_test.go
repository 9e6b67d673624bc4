package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ev-tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: "u", Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func serve(r *gin.Engine, method string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withRole(RoleAdmin), RequireAnyRole(RoleMember), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, http.MethodGet); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_ForbidsOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withRole(RoleMember), RequireAnyRole(RoleAdmin), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, http.MethodGet); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAnyRole(RoleAdmin), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, http.MethodGet); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestBlockViewerWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		role   string
		method string
		want   int
	}{
		{RoleViewer, http.MethodGet, 200},
		{RoleViewer, http.MethodPost, 403},
		{RoleViewer, http.MethodDelete, 403},
		{RoleMember, http.MethodPatch, 200},
		{RoleAdmin, http.MethodPut, 200},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Any("/x", withRole(tc.role), BlockViewerWrites(), func(c *gin.Context) {
			c.Status(200)
		})
		if code := serve(r, tc.method); code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.role, tc.method, tc.want, code)
		}
	}
}
