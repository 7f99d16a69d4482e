package handler

import (
	"errors"
	"net/http"
	"strings"

	"orbital/internal/model"
	"orbital/pkg/database"
	"orbital/pkg/logger"
	"orbital/pkg/patch"
	"orbital/pkg/validate"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tasks resolve their tenant through the owning user, so every scoped
// predicate here uses the organization's user ids as a subquery.

// ListTasks retrieves tasks in the caller's organization with optional
// company and status filters
func ListTasks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	db := database.GetDB()
	query := db.
		Preload("Company").
		Preload("Integration").
		Preload("Owner").
		Where("owner_id IN (?)", model.OrgUserIDs(db, claims.OrganizationID))

	if companyID := c.QueryParam("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []model.Task
	if result := query.Order("created_at desc").Find(&tasks); result.Error != nil {
		log.Error("Failed to list tasks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// CreateTask creates a task owned by the caller. Optional company and
// integration parents are scope-checked before the task is written.
func CreateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CompanyID     string `json:"company_id"`
		IntegrationID string `json:"integration_id"`
		Title         string `json:"title"`
		Description   string `json:"description"`
		Status        string `json:"status"`
		Priority      string `json:"priority"`
		DueDate       string `json:"due_date"`
		Source        string `json:"source"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("title", req.Title)
	v.UUID("company_id", req.CompanyID)
	v.UUID("integration_id", req.IntegrationID)
	v.OneOf("status", req.Status, model.TaskStatuses...)
	v.OneOf("priority", req.Priority, model.TaskPriorities...)
	dueDate := v.DateTime("due_date", req.DueDate)
	if err := v.Err(); err != nil {
		log.Warn("Invalid task data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	if req.CompanyID != "" {
		var company model.Company
		result := db.Where("id = ? AND organization_id = ?", req.CompanyID, claims.OrganizationID).First(&company)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
			}
			log.Error("Company lookup failed", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
	}
	if req.IntegrationID != "" {
		var integration model.Integration
		result := db.Where("id = ? AND organization_id = ?", req.IntegrationID, claims.OrganizationID).First(&integration)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
			}
			log.Error("Integration lookup failed", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
	}

	task := model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Source:      req.Source,
		OwnerID:     claims.UserID,
	}
	if task.Status == "" {
		task.Status = model.TaskOpen
	}
	if req.CompanyID != "" {
		task.CompanyID = &req.CompanyID
	}
	if req.IntegrationID != "" {
		task.IntegrationID = &req.IntegrationID
	}
	if req.DueDate != "" {
		task.DueDate = &dueDate
	}

	if result := db.Create(&task); result.Error != nil {
		log.Error("Failed to create task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	db.Preload("Company").Preload("Integration").Preload("Owner").First(&task, "id = ?", task.ID)

	log.Info("Task created", zap.String("id", task.ID), zap.String("title", task.Title))
	return c.JSON(http.StatusCreated, echo.Map{"task": task})
}

// GetTask retrieves a single task
func GetTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "get")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	db := database.GetDB()
	var task model.Task
	result := db.
		Preload("Company").
		Preload("Integration").
		Preload("Owner").
		Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to get task", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"task": task})
}

// UpdateTask applies a partial update as one conditional scoped write
func UpdateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "update")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req struct {
		Title       patch.Field[string] `json:"title"`
		Description patch.Field[string] `json:"description"`
		Status      patch.Field[string] `json:"status"`
		Priority    patch.Field[string] `json:"priority"`
		DueDate     patch.Field[string] `json:"due_date"`
		Source      patch.Field[string] `json:"source"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	updates := map[string]interface{}{}
	if req.Title.Set {
		if !req.Title.Valid() || strings.TrimSpace(req.Title.Value) == "" {
			v.Add("title", "is required")
		} else {
			updates["title"] = req.Title.Value
		}
	}
	if req.Description.Set {
		if req.Description.Null {
			updates["description"] = ""
		} else {
			updates["description"] = req.Description.Value
		}
	}
	if req.Status.Set {
		if !req.Status.Valid() {
			v.Add("status", "cannot be null")
		} else {
			v.OneOf("status", req.Status.Value, model.TaskStatuses...)
			updates["status"] = req.Status.Value
		}
	}
	if req.Priority.Set {
		if req.Priority.Null {
			updates["priority"] = ""
		} else {
			v.OneOf("priority", req.Priority.Value, model.TaskPriorities...)
			updates["priority"] = req.Priority.Value
		}
	}
	if req.DueDate.Set {
		// Explicit null clears the due date; absence leaves it untouched
		if req.DueDate.Null {
			updates["due_date"] = nil
		} else {
			updates["due_date"] = v.DateTime("due_date", req.DueDate.Value)
		}
	}
	if req.Source.Set {
		if req.Source.Null {
			updates["source"] = ""
		} else {
			updates["source"] = req.Source.Value
		}
	}
	if err := v.Err(); err != nil {
		log.Warn("Invalid task update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	if len(updates) > 0 {
		result := db.Model(&model.Task{}).
			Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
			Updates(updates)
		if result.Error != nil {
			log.Error("Failed to update task", zap.String("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
		if result.RowsAffected == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
	}

	var task model.Task
	result := db.Preload("Company").Preload("Integration").Preload("Owner").
		Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to reload task", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Task updated", zap.String("id", task.ID))
	return c.JSON(http.StatusOK, echo.Map{"task": task})
}

// UpdateTaskStatus is the narrower status/priority-only PATCH surface
func UpdateTaskStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "update_status")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req struct {
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task status request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.OneOf("status", req.Status, model.TaskStatuses...)
	v.OneOf("priority", req.Priority, model.TaskPriorities...)
	if err := v.Err(); err != nil {
		log.Warn("Invalid task status update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	updates := map[string]interface{}{}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}

	db := database.GetDB()

	if len(updates) > 0 {
		result := db.Model(&model.Task{}).
			Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
			Updates(updates)
		if result.Error != nil {
			log.Error("Failed to update task status", zap.String("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
		if result.RowsAffected == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
	}

	var task model.Task
	result := db.Preload("Company").Preload("Integration").Preload("Owner").
		Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		log.Error("Failed to reload task", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"task": task})
}

// DeleteTask removes a task in one conditional scoped delete
func DeleteTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "delete")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	db := database.GetDB()
	result := db.Where("id = ? AND owner_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		Delete(&model.Task{})
	if result.Error != nil {
		log.Error("Failed to delete task", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	log.Info("Task deleted", zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
