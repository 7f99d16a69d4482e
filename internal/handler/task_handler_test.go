package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTask(t *testing.T, e *echo.Echo, token string, body map[string]interface{}) string {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["task"].(map[string]interface{})["id"].(string)
}

func TestCreateTaskDefaultsAndOwner(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Task Org")

	rec := doJSON(t, e, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title": "Draft rollout plan",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decodeBody(t, rec)["task"].(map[string]interface{})
	assert.Equal(t, "open", task["status"])
	assert.NotEmpty(t, task["owner_id"])
	assert.Nil(t, task["company_id"], "standalone tasks have no company")
}

func TestCreateTaskRejectsForeignParents(t *testing.T) {
	e := setupTest(t)
	tokenA := registerAndLogin(t, e, "Org A")
	tokenB := registerAndLogin(t, e, "Org B")

	foreignCompany := createCompany(t, e, tokenA, "Alpha Corp")

	rec := doJSON(t, e, http.MethodPost, "/api/tasks", tokenB, map[string]interface{}{
		"title":      "Sneaky task",
		"company_id": foreignCompany,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasksFilters(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Filter Org")
	companyID := createCompany(t, e, token, "FilterCo")

	createTask(t, e, token, map[string]interface{}{"title": "Linked", "company_id": companyID})
	createTask(t, e, token, map[string]interface{}{"title": "Standalone"})
	createTask(t, e, token, map[string]interface{}{"title": "Done already", "status": "completed"})

	rec := doJSON(t, e, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["tasks"].([]interface{}), 3)

	rec = doJSON(t, e, http.MethodGet, "/api/tasks?company_id="+companyID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeBody(t, rec)["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "Linked", tasks[0].(map[string]interface{})["title"])

	rec = doJSON(t, e, http.MethodGet, "/api/tasks?status=completed", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks = decodeBody(t, rec)["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "Done already", tasks[0].(map[string]interface{})["title"])
}

func TestTasksScopedThroughOwner(t *testing.T) {
	e := setupTest(t)
	tokenA := registerAndLogin(t, e, "Org A")
	tokenB := registerAndLogin(t, e, "Org B")

	id := createTask(t, e, tokenA, map[string]interface{}{"title": "Private task"})

	rec := doJSON(t, e, http.MethodGet, "/api/tasks/"+id, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/tasks", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["tasks"])
}

func TestUpdateTaskDueDateTriState(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Due Org")
	id := createTask(t, e, token, map[string]interface{}{
		"title":    "Dated task",
		"due_date": "2026-09-01T12:00:00Z",
	})

	// absent due_date leaves the value alone
	rec := doRawJSON(t, e, http.MethodPatch, "/api/tasks/"+id, token, `{"priority": "high"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := decodeBody(t, rec)["task"].(map[string]interface{})
	assert.Equal(t, "high", task["priority"])
	assert.NotNil(t, task["due_date"])

	// explicit null clears it
	rec = doRawJSON(t, e, http.MethodPatch, "/api/tasks/"+id, token, `{"due_date": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decodeBody(t, rec)["task"].(map[string]interface{})["due_date"])
}

func TestUpdateTaskStatusEndpoint(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Status Org")
	id := createTask(t, e, token, map[string]interface{}{"title": "Kanban card"})

	rec := doJSON(t, e, http.MethodPatch, "/api/tasks/"+id+"/patch", token, map[string]interface{}{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "in_progress", decodeBody(t, rec)["task"].(map[string]interface{})["status"])

	rec = doJSON(t, e, http.MethodPatch, "/api/tasks/"+id+"/patch", token, map[string]interface{}{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	e := setupTest(t)
	token := registerAndLogin(t, e, "Delete Org")
	id := createTask(t, e, token, map[string]interface{}{"title": "Ephemeral"})

	rec := doJSON(t, e, http.MethodDelete, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
