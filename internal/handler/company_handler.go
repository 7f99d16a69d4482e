package handler

import (
	"encoding/json"
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

// The source exposed the same entity under /api/companies and
// /api/customers. Both route families share these handlers; only the
// response key follows the path the client used.
func companyKeys(c echo.Context) (singular, plural string) {
	if strings.HasPrefix(c.Path(), "/api/customers") {
		return "customer", "customers"
	}
	return "company", "companies"
}

// ListCompanies retrieves every company in the caller's organization
func ListCompanies(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("company", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var companies []model.Company
	result := database.GetDB().
		Preload("Owner").
		Where("organization_id = ?", claims.OrganizationID).
		Order("updated_at desc").
		Find(&companies)
	if result.Error != nil {
		log.Error("Failed to list companies", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	_, plural := companyKeys(c)
	return c.JSON(http.StatusOK, echo.Map{plural: companies})
}

// CreateCompany creates a company owned by the caller
func CreateCompany(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("company", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name           string          `json:"name"`
		Stage          string          `json:"stage"`
		SuccessMetrics json.RawMessage `json:"success_metrics"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse company creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("name", req.Name)
	v.OneOf("stage", req.Stage, model.CompanyStages...)
	if err := v.Err(); err != nil {
		log.Warn("Invalid company data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	company := model.Company{
		Name:           req.Name,
		Stage:          req.Stage,
		SuccessMetrics: req.SuccessMetrics,
		OwnerID:        claims.UserID,
		OrganizationID: claims.OrganizationID,
	}
	if company.Stage == "" {
		company.Stage = model.StageDiscovery
	}

	if result := database.GetDB().Create(&company); result.Error != nil {
		log.Error("Failed to create company", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	database.GetDB().Preload("Owner").First(&company, "id = ?", company.ID)

	log.Info("Company created",
		zap.String("id", company.ID),
		zap.String("name", company.Name),
		zap.String("organization_id", company.OrganizationID))

	singular, _ := companyKeys(c)
	return c.JSON(http.StatusCreated, echo.Map{singular: company})
}

// GetCompany retrieves a single company with its recent activity
func GetCompany(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("company", "get")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")
	singular, _ := companyKeys(c)

	var company model.Company
	result := database.GetDB().
		Preload("Owner").
		Preload("Integrations").
		Preload("Integrations.Owner").
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc").Limit(10)
		}).
		Preload("Notes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("updated_at desc").Limit(10)
		}).
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// Missing and cross-tenant are indistinguishable
			return c.JSON(http.StatusNotFound, echo.Map{"error": singular + " not found"})
		}
		log.Error("Failed to get company", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{singular: company})
}

// UpdateCompany applies a partial update as one conditional write scoped
// by id and organization
func UpdateCompany(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("company", "update")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")
	singular, _ := companyKeys(c)

	var req struct {
		Name           patch.Field[string]          `json:"name"`
		Stage          patch.Field[string]          `json:"stage"`
		SuccessMetrics patch.Field[json.RawMessage] `json:"success_metrics"`
		OwnerID        patch.Field[string]          `json:"owner_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse company update request", zap.Error(err))
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
	if req.Stage.Set {
		if !req.Stage.Valid() {
			v.Add("stage", "cannot be null")
		} else {
			v.OneOf("stage", req.Stage.Value, model.CompanyStages...)
			updates["stage"] = req.Stage.Value
		}
	}
	if req.SuccessMetrics.Set {
		if req.SuccessMetrics.Null {
			updates["success_metrics"] = nil
		} else {
			updates["success_metrics"] = req.SuccessMetrics.Value
		}
	}
	if req.OwnerID.Set {
		if !req.OwnerID.Valid() {
			v.Add("owner_id", "cannot be null")
		} else {
			v.UUID("owner_id", req.OwnerID.Value)
			updates["owner_id"] = req.OwnerID.Value
		}
	}
	if err := v.Err(); err != nil {
		log.Warn("Invalid company update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	db := database.GetDB()

	// A reassigned owner must belong to the same organization, otherwise
	// a cross-tenant reference could be planted
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
		result := db.Model(&model.Company{}).
			Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
			Updates(updates)
		if result.Error != nil {
			log.Error("Failed to update company", zap.String("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
		if result.RowsAffected == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": singular + " not found"})
		}
	}

	var company model.Company
	result := db.Preload("Owner").
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": singular + " not found"})
		}
		log.Error("Failed to reload company", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Company updated", zap.String("id", company.ID))
	return c.JSON(http.StatusOK, echo.Map{singular: company})
}

// DeleteCompany removes a company in one conditional, scoped delete
func DeleteCompany(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("company", "delete")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")
	singular, _ := companyKeys(c)

	result := database.GetDB().
		Where("id = ? AND organization_id = ?", id, claims.OrganizationID).
		Delete(&model.Company{})
	if result.Error != nil {
		log.Error("Failed to delete company", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": singular + " not found"})
	}

	log.Info("Company deleted", zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
