package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/azurepricing"
)

func setupRouter(upstream http.HandlerFunc) (*gin.Engine, *httptest.Server) {
	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(upstream)
	r := gin.New()
	NewHandler(azurepricing.NewClient(server.URL)).RegisterRoutes(r.Group("/azure"))
	return r, server
}

func TestGetPrices(t *testing.T) {
	r, server := setupRouter(func(w http.ResponseWriter, req *http.Request) {
		filter := req.URL.Query().Get("$filter")
		assert.Contains(t, filter, "serviceName eq 'Virtual Machines'")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Items": []map[string]interface{}{{"skuId": "a", "retailPrice": 0.0125}},
		})
	})
	defer server.Close()

	req := httptest.NewRequest(http.MethodGet, "/azure/prices?service_name=Virtual+Machines&arm_region_name=westus2", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Count int                      `json:"count"`
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "a", body.Items[0]["skuId"])
}

func TestGetPricesBadMaxPages(t *testing.T) {
	r, server := setupRouter(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"Items": []map[string]interface{}{}})
	})
	defer server.Close()

	req := httptest.NewRequest(http.MethodGet, "/azure/prices?max_pages=99", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPricesUpstreamClientError(t *testing.T) {
	r, server := setupRouter(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "bad filter expression", http.StatusBadRequest)
	})
	defer server.Close()

	req := httptest.NewRequest(http.MethodGet, "/azure/prices?service_name=Nope", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	// Upstream 4xx statuses pass through.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
