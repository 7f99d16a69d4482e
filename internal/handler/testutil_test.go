package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"orbital/internal/model"
	"orbital/pkg/config"
	"orbital/pkg/database"
	"orbital/pkg/jwtutil"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTest wires the full HTTP surface against a fresh in-memory
// sqlite database so handler tests exercise the real middleware, scope
// predicates, and response shaping.
func setupTest(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	database.DB = db

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	SetWebhookToken("")

	e := echo.New()
	RegisterRoutes(e)
	return e
}

// doJSON performs a request against the test server, optionally with a
// bearer token, and returns the recorder
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// doRawJSON sends a raw JSON body, for payloads that need explicit
// nulls a marshalled struct cannot express
func doRawJSON(t *testing.T, e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorder body into a generic map
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var userSeq int

// registerAndLogin provisions an organization with one user through the
// public endpoints and returns a usable bearer token
func registerAndLogin(t *testing.T, e *echo.Echo, orgName string) string {
	t.Helper()

	userSeq++
	email := fmt.Sprintf("fde%d@example.com", userSeq)

	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":             email,
		"password":          "secret123",
		"name":              "Test FDE",
		"organization_name": orgName,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok, "login response must carry a token")
	return token
}

// createCompany creates a company and returns its id
func createCompany(t *testing.T, e *echo.Echo, token, name string) string {
	t.Helper()

	rec := doJSON(t, e, http.MethodPost, "/api/companies", token, map[string]interface{}{
		"name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	company := body["company"].(map[string]interface{})
	return company["id"].(string)
}

// createIntegration creates an integration under a company and returns its id
func createIntegration(t *testing.T, e *echo.Echo, token, companyID, name string) string {
	t.Helper()

	rec := doJSON(t, e, http.MethodPost, "/api/integrations", token, map[string]interface{}{
		"company_id": companyID,
		"name":       name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	integration := body["integration"].(map[string]interface{})
	return integration["id"].(string)
}
