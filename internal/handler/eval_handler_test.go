package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvalRun(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Eval Org")
	companyID := createCompany(t, e, token, "EvalCo")

	rec := doJSON(t, e, http.MethodPost, "/api/evals", token, map[string]interface{}{
		"suite":        "support-triage",
		"company_id":   companyID,
		"pass_rate":    0.85,
		"total_tests":  20,
		"passed_tests": 17,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeBody(t, rec)["eval_run"].(map[string]interface{})
	assert.Equal(t, "manual", run["trigger"])
	assert.Equal(t, companyID, run["company_id"])
	assert.Equal(t, 0.85, run["pass_rate"])
}

func TestCreateEvalRunValidation(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Eval Org")

	// passed_tests above total_tests is a hard reject
	rec := doJSON(t, e, http.MethodPost, "/api/evals", token, map[string]interface{}{
		"suite":        "support-triage",
		"pass_rate":    0.5,
		"total_tests":  10,
		"passed_tests": 11,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// pass_rate outside [0, 1]
	rec = doJSON(t, e, http.MethodPost, "/api/evals", token, map[string]interface{}{
		"suite":        "support-triage",
		"pass_rate":    1.5,
		"total_tests":  10,
		"passed_tests": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// suite is required
	rec = doJSON(t, e, http.MethodPost, "/api/evals", token, map[string]interface{}{
		"pass_rate":   0.5,
		"total_tests": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvalRunRejectsForeignCompany(t *testing.T) {
	e := setupTest(t)
	tokenA := registerAndLogin(t, e, "Org A")
	tokenB := registerAndLogin(t, e, "Org B")

	foreignCompany := createCompany(t, e, tokenA, "Alpha Corp")

	rec := doJSON(t, e, http.MethodPost, "/api/evals", tokenB, map[string]interface{}{
		"suite":       "support-triage",
		"company_id":  foreignCompany,
		"pass_rate":   0.5,
		"total_tests": 10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEvalRunsScopedAndFiltered(t *testing.T) {
	e := setupTest(t)
	tokenA := registerAndLogin(t, e, "Org A")
	tokenB := registerAndLogin(t, e, "Org B")
	companyID := createCompany(t, e, tokenA, "EvalCo")

	doJSON(t, e, http.MethodPost, "/api/evals", tokenA, map[string]interface{}{
		"suite": "suite-one", "company_id": companyID, "pass_rate": 0.9, "total_tests": 10, "passed_tests": 9,
	})
	doJSON(t, e, http.MethodPost, "/api/evals", tokenA, map[string]interface{}{
		"suite": "suite-two", "pass_rate": 0.5, "total_tests": 10, "passed_tests": 5,
	})

	rec := doJSON(t, e, http.MethodGet, "/api/evals", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["eval_runs"].([]interface{}), 2)

	rec = doJSON(t, e, http.MethodGet, "/api/evals?suite=suite-one", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decodeBody(t, rec)["eval_runs"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, "suite-one", runs[0].(map[string]interface{})["suite"])

	rec = doJSON(t, e, http.MethodGet, "/api/evals", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["eval_runs"])
}

func TestWebhookReportResolvesOrganization(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Webhook Org")
	companyID := createCompany(t, e, token, "HookCo")

	rec := doJSON(t, e, http.MethodPost, "/api/evals/report", "", map[string]interface{}{
		"suite":        "nightly-regression",
		"company_id":   companyID,
		"pass_rate":    0.95,
		"total_tests":  40,
		"passed_tests": 38,
		"trigger":      "manual",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	run := body["eval_run"].(map[string]interface{})
	// webhook ingestion always records a webhook trigger
	assert.Equal(t, "webhook", run["trigger"])

	// the run lands in the resolved organization
	rec = doJSON(t, e, http.MethodGet, "/api/evals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["eval_runs"].([]interface{}), 1)
}

func TestWebhookReportUnresolvableCompany(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(t, e, http.MethodPost, "/api/evals/report", "", map[string]interface{}{
		"suite":       "nightly-regression",
		"pass_rate":   0.5,
		"total_tests": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/evals/report", "", map[string]interface{}{
		"suite":       "nightly-regression",
		"company_id":  "00000000-0000-0000-0000-000000000000",
		"pass_rate":   0.5,
		"total_tests": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookReportTokenGate(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Gated Org")
	companyID := createCompany(t, e, token, "GatedCo")

	SetWebhookToken("hook-secret")
	defer SetWebhookToken("")

	payload := map[string]interface{}{
		"suite":       "gated-suite",
		"company_id":  companyID,
		"pass_rate":   0.5,
		"total_tests": 10,
	}

	rec := doJSON(t, e, http.MethodPost, "/api/evals/report", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	payload["token"] = "wrong-secret"
	rec = doJSON(t, e, http.MethodPost, "/api/evals/report", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	payload["token"] = "hook-secret"
	rec = doJSON(t, e, http.MethodPost, "/api/evals/report", "", payload)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
