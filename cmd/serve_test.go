package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	body, err := json.Marshal(map[string]string{
		"text": "erDiagram\n    Customer {\n        string full_name\n    }\n",
	})
	require.NoError(t, err)

	w := postJSON(t, "/api/validate", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Valid    bool `json:"valid"`
		Warnings []struct {
			ID string `json:"id"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Valid) // warnings only, no errors
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "missing_primary_key:Customer", result.Warnings[0].ID)
}

func TestValidateEndpointRejectsMissingText(t *testing.T) {
	w := postJSON(t, "/api/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFixEndpoint(t *testing.T) {
	body, err := json.Marshal(map[string]string{
		"text": "erDiagram\n    Customer {\n        string full_name\n    }\n",
	})
	require.NoError(t, err)

	w := postJSON(t, "/api/fix", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Text     string   `json:"text"`
		Resolved []string `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"missing_primary_key:Customer"}, result.Resolved)
	assert.Contains(t, result.Text, "string customer_id PK")
}

func TestConvertEndpoint(t *testing.T) {
	body, err := json.Marshal(map[string]string{
		"text":   "erDiagram\n    Customer {\n        string customer_id PK\n    }\n",
		"prefix": "cto",
	})
	require.NoError(t, err)

	w := postJSON(t, "/api/convert", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var artifacts struct {
		Entities []struct {
			SchemaName string `json:"SchemaName"`
		} `json:"Entities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifacts))
	require.Len(t, artifacts.Entities, 1)
	assert.Equal(t, "cto_customer", artifacts.Entities[0].SchemaName)
}

func TestConvertEndpointRejectsInvalidDiagram(t *testing.T) {
	body, err := json.Marshal(map[string]string{
		"text": "erDiagram\n    Customer ||--o{ Order : places\n",
	})
	require.NoError(t, err)

	w := postJSON(t, "/api/convert", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
