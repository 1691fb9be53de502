package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewAPI_Version(t *testing.T) {
	engine := gin.New()
	NewAPI(engine, "").Add(NewResource("/quotes").GET("", reply("v1"))).Build()
	assert.Equal(t, "v1", serve(engine, http.MethodGet, "/api/v1/quotes").Body.String())

	engine = gin.New()
	NewAPI(engine, "v2").Add(NewResource("/quotes").GET("", reply("v2"))).Build()
	assert.Equal(t, "v2", serve(engine, http.MethodGet, "/api/v2/quotes").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/quotes").Code)
}

func TestResource_Methods(t *testing.T) {
	engine := gin.New()
	invoices := NewResource("/invoices").
		GET("", reply("list")).
		POST("", reply("create")).
		PUT("/:id", reply("update")).
		PATCH("/:id/status", reply("status")).
		DELETE("/:id", reply("delete")).
		On(http.MethodOptions, "/:id", reply("options"))
	NewAPI(engine, "v1").Add(invoices).Build()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/invoices", "list"},
		{http.MethodPost, "/api/v1/invoices", "create"},
		{http.MethodPut, "/api/v1/invoices/1", "update"},
		{http.MethodPatch, "/api/v1/invoices/1/status", "status"},
		{http.MethodDelete, "/api/v1/invoices/1", "delete"},
		{http.MethodOptions, "/api/v1/invoices/1", "options"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestResource_StaticRouteBesideParam(t *testing.T) {
	engine := gin.New()
	NewAPI(engine, "v1").Add(NewResource("/quotes").
		GET("/summary", reply("summary")).
		GET("/:id", reply("get"))).
		Build()

	assert.Equal(t, "summary", serve(engine, http.MethodGet, "/api/v1/quotes/summary").Body.String())
	assert.Equal(t, "get", serve(engine, http.MethodGet, "/api/v1/quotes/abc").Body.String())
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	engine := gin.New()
	invoices := NewResource("/invoices").Use(mark("resource"))
	invoices.POST("/:id/payments", mark("route"), reply("ok"))
	invoices.Nest("/schedules").Use(mark("nested")).GET("", reply("ok"))

	NewAPI(engine, "v1").Use(mark("api")).Add(invoices).Build()

	serve(engine, http.MethodPost, "/api/v1/invoices/1/payments")
	assert.Equal(t, []string{"api", "resource", "route"}, order)

	order = nil
	w := serve(engine, http.MethodGet, "/api/v1/invoices/schedules")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"api", "resource", "nested"}, order)
}

func TestMultipleResources(t *testing.T) {
	engine := gin.New()
	NewAPI(engine, "v1").
		Add(NewResource("/quotes").GET("", reply("quotes"))).
		Add(NewResource("/recurring-schedules").GET("", reply("schedules"))).
		Build()

	assert.Equal(t, "quotes", serve(engine, http.MethodGet, "/api/v1/quotes").Body.String())
	assert.Equal(t, "schedules", serve(engine, http.MethodGet, "/api/v1/recurring-schedules").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/payments").Code)
}
