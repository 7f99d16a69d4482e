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

// ListIntegrations retrieves integrations in the caller's organization,
// optionally filtered by company
func ListIntegrations(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("integration", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().
		Preload("Company").
		Preload("Owner").
		Preload("Template").
		Where("organization_id = ?", claims.OrganizationID)

	if companyID := c.QueryParam("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	var integrations []model.Integration
	if result := query.Order("updated_at desc").Find(&integrations); result.Error != nil {
		log.Error("Failed to list integrations", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"integrations": integrations})
}

// CreateIntegration creates an integration under a scope-checked company
func CreateIntegration(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("integration", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CompanyID  string `json:"company_id"`
		TemplateID string `json:"template_id"`
		Name       string `json:"name"`
		Status     string `json:"status"`
		Phase      string `json:"phase"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse integration creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("name", req.Name)
	v.Require("company_id", req.CompanyID)
	v.UUID("company_id", req.CompanyID)
	v.UUID("template_id", req.TemplateID)
	v.OneOf("status", req.Status, model.IntegrationStatuses...)
	if err := v.Err(); err != nil {
		log.Warn("Invalid integration data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	// The parent lookup is itself scoped so a cross-tenant company id
	// cannot be planted
	var company model.Company
	result := db.Where("id = ? AND organization_id = ?", req.CompanyID, claims.OrganizationID).First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		log.Error("Company lookup failed", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	if req.TemplateID != "" {
		var template model.IntegrationTemplate
		result := db.Where("id = ? AND organization_id = ?", req.TemplateID, claims.OrganizationID).First(&template)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "template not found"})
			}
			log.Error("Template lookup failed", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
	}

	integration := model.Integration{
		Name:           req.Name,
		Status:         req.Status,
		Phase:          req.Phase,
		CompanyID:      req.CompanyID,
		OwnerID:        &claims.UserID,
		OrganizationID: claims.OrganizationID,
	}
	if integration.Status == "" {
		integration.Status = model.IntegrationDiscovery
	}
	if req.TemplateID != "" {
		integration.TemplateID = &req.TemplateID
	}

	if result := db.Create(&integration); result.Error != nil {
		log.Error("Failed to create integration", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	db.Preload("Company").Preload("Owner").Preload("Template").First(&integration, "id = ?", integration.ID)

	log.Info("Integration created",
		zap.String("id", integration.ID),
		zap.String("name", integration.Name),
		zap.String("company_id", integration.CompanyID))

	return c.JSON(http.StatusCreated, echo.Map{"integration": integration})
}

// GetIntegration retrieves a single integration with its children
func GetIntegration(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("integration", "get")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var integration model.Integration
	result := database.GetDB().
		Preload("Company").
		Preload("Owner").
		Preload("Template").
		Preload("ChecklistItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at asc")
		}).
		Preload("ArtifactLinks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc")
		}).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc").Limit(10)
		}).
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&integration)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
		}
		log.Error("Failed to get integration", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"integration": integration})
}

// UpdateIntegration applies a partial update as one conditional scoped write
func UpdateIntegration(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("integration", "update")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req struct {
		Name    patch.Field[string] `json:"name"`
		Status  patch.Field[string] `json:"status"`
		Phase   patch.Field[string] `json:"phase"`
		OwnerID patch.Field[string] `json:"owner_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse integration update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	updates := map[string]interface{}{}
	if req.Name.Set {
		if !req.Name.Valid() || strings.TrimSpace(req.Name.Value) == "" {
			v.Add("name", "is required")
		} else {
			updates["name"] = req.Name.Value
		}
	}
	if req.Status.Set {
		if !req.Status.Valid() {
			v.Add("status", "cannot be null")
		} else {
			v.OneOf("status", req.Status.Value, model.IntegrationStatuses...)
			updates["status"] = req.Status.Value
		}
	}
	if req.Phase.Set {
		if req.Phase.Null {
			updates["phase"] = ""
		} else {
			updates["phase"] = req.Phase.Value
		}
	}
	if req.OwnerID.Set {
		if req.OwnerID.Null {
			updates["owner_id"] = nil
		} else {
			v.UUID("owner_id", req.OwnerID.Value)
			updates["owner_id"] = req.OwnerID.Value
		}
	}
	if err := v.Err(); err != nil {
		log.Warn("Invalid integration update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	if newOwner, ok := updates["owner_id"].(string); ok {
		var owner model.User
		result := db.Where("id = ? AND organization_id = ?", newOwner, claims.OrganizationID).First(&owner)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "owner not found"})
			}
			log.Error("Owner lookup failed", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
	}

	if len(updates) > 0 {
		result := db.Model(&model.Integration{}).
			Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
			Updates(updates)
		if result.Error != nil {
			log.Error("Failed to update integration", zap.String("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
		if result.RowsAffected == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
		}
	}

	var integration model.Integration
	result := db.Preload("Company").Preload("Owner").
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&integration)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
		}
		log.Error("Failed to reload integration", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Integration updated", zap.String("id", integration.ID))
	return c.JSON(http.StatusOK, echo.Map{"integration": integration})
}

// DeleteIntegration removes an integration in one conditional scoped delete
func DeleteIntegration(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("integration", "delete")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	result := database.GetDB().
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		Delete(&model.Integration{})
	if result.Error != nil {
		log.Error("Failed to delete integration", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
	}

	log.Info("Integration deleted", zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CreateChecklistItem creates a checklist item under a scope-checked
// integration
func CreateChecklistItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("checklist_item", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	integrationID := c.Param("id")

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		DueDate     string `json:"due_date"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse checklist item request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("title", req.Title)
	dueDate := v.DateTime("due_date", req.DueDate)
	if err := v.Err(); err != nil {
		log.Warn("Invalid checklist item data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	var integration model.Integration
	result := db.Where("id = ? AND organization_id = ?", integrationID, claims.OrganizationID).First(&integration)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "integration not found"})
		}
		log.Error("Integration lookup failed", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	item := model.ChecklistItem{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		State:         model.ChecklistPending,
		IntegrationID: integration.ID,
	}
	if req.DueDate != "" {
		item.DueDate = &dueDate
	}

	if result := db.Create(&item); result.Error != nil {
		log.Error("Failed to create checklist item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Checklist item created",
		zap.String("id", item.ID),
		zap.String("integration_id", item.IntegrationID))

	return c.JSON(http.StatusCreated, echo.Map{"item": item})
}
