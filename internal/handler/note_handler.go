package handler

import (
	"crypto/rand"
	"encoding/hex"
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

// Notes resolve their tenant through the author, so scoped predicates
// use the organization's user ids as a subquery.

// newShareToken returns a cryptographically random share token. The
// source derived these from the clock plus Math.random, which made them
// guessable; random bytes close that.
func newShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "note-" + hex.EncodeToString(buf), nil
}

// ListNotes retrieves notes in the caller's organization with optional
// company and type filters
func ListNotes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("note", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	db := database.GetDB()
	query := db.
		Preload("Company").
		Preload("Author").
		Where("author_id IN (?)", model.OrgUserIDs(db, claims.OrganizationID))

	if companyID := c.QueryParam("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if noteType := c.QueryParam("type"); noteType != "" {
		query = query.Where("type = ?", noteType)
	}

	var notes []model.Note
	if result := query.Order("updated_at desc").Find(&notes); result.Error != nil {
		log.Error("Failed to list notes", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

// CreateNote creates a note authored by the caller with a fresh share
// token. An optional company parent is scope-checked first.
func CreateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("note", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CompanyID     string `json:"company_id"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		Type          string `json:"type"`
		ClientVisible *bool  `json:"client_visible"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("title", req.Title)
	v.UUID("company_id", req.CompanyID)
	v.OneOf("type", req.Type, model.NoteTypes...)
	if err := v.Err(); err != nil {
		log.Warn("Invalid note data", zap.Error(err))
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

	shareToken, err := newShareToken()
	if err != nil {
		log.Error("Failed to generate share token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	note := model.Note{
		Title:         req.Title,
		Content:       req.Content,
		Type:          req.Type,
		ShareableLink: shareToken,
		Version:       1,
		AuthorID:      claims.UserID,
	}
	if note.Type == "" {
		note.Type = model.NoteTypeNote
	}
	if req.ClientVisible != nil {
		note.ClientVisible = *req.ClientVisible
	}
	if req.CompanyID != "" {
		note.CompanyID = &req.CompanyID
	}

	if result := db.Create(&note); result.Error != nil {
		log.Error("Failed to create note", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	db.Preload("Company").Preload("Author").First(&note, "id = ?", note.ID)

	log.Info("Note created", zap.String("id", note.ID), zap.String("title", note.Title))
	return c.JSON(http.StatusCreated, echo.Map{"note": note})
}

// GetNote retrieves a single note
func GetNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("note", "get")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	db := database.GetDB()
	var note model.Note
	result := db.
		Preload("Company").
		Preload("Author").
		Where("id = ? AND author_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		First(&note)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to get note", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

// UpdateNote applies a partial update and bumps the version counter by
// exactly one in the same conditional scoped write. The increment is a
// SQL expression over the stored value, never a client-supplied number.
func UpdateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("note", "update")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req struct {
		Title         patch.Field[string] `json:"title"`
		Content       patch.Field[string] `json:"content"`
		Type          patch.Field[string] `json:"type"`
		ClientVisible patch.Field[bool]   `json:"client_visible"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse note update request", zap.Error(err))
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
	if req.Content.Set {
		if req.Content.Null {
			updates["content"] = ""
		} else {
			updates["content"] = req.Content.Value
		}
	}
	if req.Type.Set {
		if !req.Type.Valid() {
			v.Add("type", "cannot be null")
		} else {
			v.OneOf("type", req.Type.Value, model.NoteTypes...)
			updates["type"] = req.Type.Value
		}
	}
	if req.ClientVisible.Set {
		if req.ClientVisible.Null {
			v.Add("client_visible", "cannot be null")
		} else {
			updates["client_visible"] = req.ClientVisible.Value
		}
	}
	if err := v.Err(); err != nil {
		log.Warn("Invalid note update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	// Every successful update advances the version, field changes or not
	updates["version"] = gorm.Expr("version + 1")

	db := database.GetDB()
	result := db.Model(&model.Note{}).
		Where("id = ? AND author_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update note", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	var note model.Note
	reload := db.Preload("Company").Preload("Author").
		Where("id = ? AND author_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		First(&note)
	if reload.Error != nil {
		log.Error("Failed to reload note", zap.String("id", id), zap.Error(reload.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	log.Info("Note updated", zap.String("id", note.ID), zap.Int("version", note.Version))
	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

// DeleteNote removes a note in one conditional scoped delete
func DeleteNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("note", "delete")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	db := database.GetDB()
	result := db.Where("id = ? AND author_id IN (?)", id, model.OrgUserIDs(db, claims.OrganizationID)).
		Delete(&model.Note{})
	if result.Error != nil {
		log.Error("Failed to delete note", zap.String("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	log.Info("Note deleted", zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
