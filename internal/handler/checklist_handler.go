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

// UpdateChecklistItem applies a partial update to a checklist item. The
// tenant scope is resolved through the owning integration in the same
// conditional write.
func UpdateChecklistItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("checklist_item", "update")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req struct {
		State       patch.Field[string] `json:"state"`
		Title       patch.Field[string] `json:"title"`
		Description patch.Field[string] `json:"description"`
		Category    patch.Field[string] `json:"category"`
		DueDate     patch.Field[string] `json:"due_date"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse checklist item update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	updates := map[string]interface{}{}
	if req.State.Set {
		if !req.State.Valid() {
			v.Add("state", "cannot be null")
		} else {
			v.OneOf("state", req.State.Value, model.ChecklistStates...)
			updates["state"] = req.State.Value
		}
	}
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
	if req.Category.Set {
		if req.Category.Null {
			updates["category"] = ""
		} else {
			updates["category"] = req.Category.Value
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
	if err := v.Err(); err != nil {
		log.Warn("Invalid checklist item update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	if len(updates) > 0 {
		result := db.Model(&model.ChecklistItem{}).
			Where("id = ? AND integration_id IN (?)", id, model.OrgIntegrationIDs(db, claims.OrganizationID)).
			Updates(updates)
		if result.Error != nil {
			log.Error("Failed to update checklist item", zap.String("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
		if result.RowsAffected == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "checklist item not found"})
		}
	}

	var item model.ChecklistItem
	result := db.Where("id = ? AND integration_id IN (?)", id, model.OrgIntegrationIDs(db, claims.OrganizationID)).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "checklist item not found"})
		}
		log.Error("Failed to reload checklist item", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Checklist item updated", zap.String("id", item.ID), zap.String("state", item.State))
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

// DeleteChecklistItem removes a checklist item in one conditional scoped
// delete
func DeleteChecklistItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("checklist_item", "delete")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	db := database.GetDB()
	result := db.Where("id = ? AND integration_id IN (?)", id, model.OrgIntegrationIDs(db, claims.OrganizationID)).
		Delete(&model.ChecklistItem{})
	if result.Error != nil {
		log.Error("Failed to delete checklist item", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "checklist item not found"})
	}

	log.Info("Checklist item deleted", zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
