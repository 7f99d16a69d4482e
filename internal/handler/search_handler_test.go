package handler

import (
	"net/http"
	"testing"

	"orbital/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAcrossEntities(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Search Org")
	companyID := createCompany(t, e, token, "Voyager Systems")
	createIntegration(t, e, token, companyID, "Voyager Telemetry")
	createTask(t, e, token, map[string]interface{}{"title": "Review voyager dashboards"})
	doJSON(t, e, http.MethodPost, "/api/notes", token, map[string]interface{}{
		"title":   "Weekly sync",
		"content": "Discussed the voyager rollout.",
	})

	rec := doJSON(t, e, http.MethodGet, "/api/search?q=voyager", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decodeBody(t, rec)["results"].(map[string]interface{})
	assert.Len(t, results["companies"].([]interface{}), 1)
	assert.Len(t, results["integrations"].([]interface{}), 1)
	assert.Len(t, results["tasks"].([]interface{}), 1)
	// note matched on content, not title
	assert.Len(t, results["notes"].([]interface{}), 1)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Case Org")
	createCompany(t, e, token, "MixedCase Industries")

	rec := doJSON(t, e, http.MethodGet, "/api/search?q=mixedcase", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)["results"].(map[string]interface{})
	assert.Len(t, results["companies"].([]interface{}), 1)
}

func TestSearchScopedToOrganization(t *testing.T) {
	e := setupTest(t)
	tokenA := registerAndLogin(t, e, "Org A")
	tokenB := registerAndLogin(t, e, "Org B")
	createCompany(t, e, tokenA, "Shared Name Corp")

	rec := doJSON(t, e, http.MethodGet, "/api/search?q=shared", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)["results"].(map[string]interface{})
	assert.Empty(t, results["companies"])
}

func TestShortQuerySkipsDatabase(t *testing.T) {
	e := setupTest(t)
	tok := registerAndLogin(t, e, "Short Org")

	// with no database, a short query must still succeed, proving the
	// threshold check runs before any storage access
	saved := database.DB
	database.DB = nil
	defer func() { database.DB = saved }()

	for _, q := range []string{"", "x"} {
		rec := doJSON(t, e, http.MethodGet, "/api/search?q="+q, tok, nil)
		require.Equal(t, http.StatusOK, rec.Code, "q=%q", q)
		assert.Empty(t, decodeBody(t, rec)["results"])
	}
}

func TestSearchLimitsEachBucket(t *testing.T) {
	e := setupTest(t)
	tok := registerAndLogin(t, e, "Bulk Org")

	for i := 0; i < 8; i++ {
		createCompany(t, e, tok, "Bulkmatch Corp")
	}

	rec := doJSON(t, e, http.MethodGet, "/api/search?q=bulkmatch", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)["results"].(map[string]interface{})
	assert.Len(t, results["companies"].([]interface{}), 5)
}
