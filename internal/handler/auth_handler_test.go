package handler

import (
	"net/http"
	"testing"

	"orbital/internal/model"
	"orbital/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesOrganizationAndUser(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":             "newfde@example.com",
		"password":          "secret123",
		"name":              "New FDE",
		"organization_name": "Acme Deployments",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	org := body["organization"].(map[string]interface{})
	assert.Equal(t, "newfde@example.com", user["email"])
	assert.Equal(t, "fde", user["role"])
	assert.Nil(t, user["password"], "password hash must never be serialized")
	assert.Equal(t, "Acme Deployments", org["name"])
	assert.Equal(t, "acme-deployments", org["slug"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := setupTest(t)

	payload := map[string]interface{}{
		"email":             "dup@example.com",
		"password":          "secret123",
		"organization_name": "First Org",
	}
	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	payload["organization_name"] = "Second Org"
	rec = doJSON(t, e, http.MethodPost, "/api/auth/register", "", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the failed registration must not leave a second organization behind
	var count int64
	require.NoError(t, database.GetDB().Model(&model.Organization{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterValidation(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	details := body["details"].([]interface{})
	fields := make(map[string]bool)
	for _, d := range details {
		fields[d.(map[string]interface{})["field"].(string)] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["organization_name"])
}

func TestLoginReturnsToken(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Login Org")
	require.NotEmpty(t, token)

	// the token works against a protected route
	rec := doJSON(t, e, http.MethodGet, "/api/companies", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	e := setupTest(t)

	doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":             "victim@example.com",
		"password":          "secret123",
		"organization_name": "Victim Org",
	})

	rec := doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "victim@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := setupTest(t)

	for _, path := range []string{"/api/companies", "/api/tasks", "/api/notes", "/api/search?q=test"} {
		rec := doJSON(t, e, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/companies", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
