package ginserver_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andrasq/kstats/internal/adapters/http/ginserver"
	"github.com/andrasq/kstats/internal/adapters/repository/memory"
	"github.com/andrasq/kstats/internal/services/ingest"
)

func newExampleRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := ingest.New(memory.New(), nil, nil)
	return ginserver.NewRouter(ginserver.NewHandler(svc))
}

func ExampleNewRouter() {
	router := newExampleRouter()

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/custom",
		strings.NewReader(`{"timestamp":100,"proto_version":1,"data":[{"name":"cpu.busy","value":4,"collected_at":100}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(resp, req)
	fmt.Println(resp.Code, strings.TrimSpace(resp.Body.String()))

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(resp, req)
	fmt.Println(resp.Code, strings.TrimSpace(resp.Body.String()))

	// Output:
	// 200 {"received":1}
	// 200 ok
}
