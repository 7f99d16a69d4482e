package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"orbital/internal/model"
	"orbital/pkg/database"
	"orbital/pkg/logger"
	"orbital/pkg/validate"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListTemplates retrieves the organization's integration templates
func ListTemplates(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("template", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var templates []model.IntegrationTemplate
	result := database.GetDB().
		Where("organization_id = ?", claims.OrganizationID).
		Order("created_at desc").
		Find(&templates)
	if result.Error != nil {
		log.Error("Failed to list templates", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"templates": templates})
}

// CreateTemplate creates an integration template. Checklist items are
// stored as an inline JSON array, validated for shape but otherwise
// opaque to the server.
func CreateTemplate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("template", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name           string          `json:"name"`
		Description    string          `json:"description"`
		ChecklistItems json.RawMessage `json:"checklist_items"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse template creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("name", req.Name)

	items := []model.TemplateChecklistItem{}
	if len(req.ChecklistItems) > 0 {
		if err := json.Unmarshal(req.ChecklistItems, &items); err != nil {
			v.Add("checklist_items", "must be an array of checklist items")
		} else {
			for i, item := range items {
				if strings.TrimSpace(item.Title) == "" {
					v.Add(fmt.Sprintf("checklist_items[%d].title", i), "is required")
				}
			}
		}
	}
	if err := v.Err(); err != nil {
		log.Warn("Invalid template data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	// Normalize so the stored blob is always a well-formed array
	normalized, err := json.Marshal(items)
	if err != nil {
		log.Error("Failed to encode checklist items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	template := model.IntegrationTemplate{
		Name:           req.Name,
		Description:    req.Description,
		ChecklistItems: normalized,
		OrganizationID: claims.OrganizationID,
	}

	if result := database.GetDB().Create(&template); result.Error != nil {
		log.Error("Failed to create template", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Template created",
		zap.String("id", template.ID),
		zap.String("name", template.Name),
		zap.Int("checklist_items", len(items)))

	return c.JSON(http.StatusCreated, echo.Map{"template": template})
}
