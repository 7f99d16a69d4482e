package handler

import (
	"net/http"
	"strings"
	"time"

	"orbital/internal/model"
	"orbital/pkg/database"
	"orbital/pkg/jwtutil"
	"orbital/pkg/logger"
	"orbital/pkg/validate"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register creates an organization and its first user in one transaction
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email            string `json:"email"`
		Password         string `json:"password"`
		Name             string `json:"name"`
		OrganizationName string `json:"organization_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := validate.New()
	v.Require("email", req.Email)
	if req.Email != "" {
		v.Email("email", req.Email)
	}
	v.MinLen("password", req.Password, 6)
	v.Require("organization_name", req.OrganizationName)
	if err := v.Err(); err != nil {
		log.Warn("Invalid registration data", zap.Error(err))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "details": v.Errs()})
	}

	// Check if user already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Warn("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user already exists"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	org := model.Organization{
		Name: req.OrganizationName,
		Slug: slugify(req.OrganizationName),
	}
	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Role:     "fde",
	}

	// Organization and first user are created atomically
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	if result := tx.Create(&org); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create organization", zap.Error(result.Error))
		prometheus.RecordAuthError("organization_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user.OrganizationID = org.ID
	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit registration transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Organization registered",
		zap.String("organization_id", org.ID),
		zap.String("slug", org.Slug),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"user": map[string]interface{}{
			"id":              user.ID,
			"email":           user.Email,
			"name":            user.Name,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
		},
		"organization": map[string]interface{}{
			"id":   org.ID,
			"name": org.Name,
			"slug": org.Slug,
		},
	})
}

// Login verifies credentials and issues a JWT with organization claims
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var org model.Organization
	if result := database.GetDB().First(&org, "id = ?", user.OrganizationID); result.Error != nil {
		log.Error("Organization lookup failed", zap.String("organization_id", user.OrganizationID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.OrganizationID, org.Name, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("organization_id", user.OrganizationID))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":              user.ID,
			"email":           user.Email,
			"name":            user.Name,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
		},
	})
}

// slugify lowercases a name and collapses whitespace runs to dashes
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
