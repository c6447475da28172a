package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRegistryMountsModulesUnderAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(gin.New())
	reg.Add(pingModule{})
	reg.RegisterAll()

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("GET /api/ping = %d %q", w.Code, w.Body.String())
	}
}

func TestRegistryAppliesMiddlewareToModuleRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(gin.New())

	var ran bool
	reg.Use(func(c *gin.Context) {
		ran = true
		c.Next()
	})
	reg.Add(pingModule{})
	reg.RegisterAll()

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/ping = %d", w.Code)
	}
	if !ran {
		t.Fatal("group middleware did not run for a module route")
	}
}
