package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"orbital/internal/model"
	"orbital/pkg/database"
	"orbital/pkg/logger"
	"orbital/pkg/validate"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// webhookToken gates the unauthenticated report endpoint. Empty means
// any payload is accepted, matching the source's behavior.
var webhookToken string

// SetWebhookToken configures the optional eval webhook token
func SetWebhookToken(token string) {
	webhookToken = token
}

// evalRunRequest is shared by the authenticated create and the webhook
type evalRunRequest struct {
	CompanyID   string          `json:"company_id"`
	AgentID     string          `json:"agent_id"`
	Suite       string          `json:"suite"`
	Dataset     string          `json:"dataset"`
	PassRate    float64         `json:"pass_rate"`
	TotalTests  int             `json:"total_tests"`
	PassedTests int             `json:"passed_tests"`
	Tokens      *int            `json:"tokens"`
	Duration    *int            `json:"duration"`
	Trigger     string          `json:"trigger"`
	Payload     json.RawMessage `json:"payload"`
	Metadata    json.RawMessage `json:"metadata"`
	Token       string          `json:"token"`
}

func (r *evalRunRequest) validate() *validate.Validator {
	v := validate.New()
	v.Require("suite", r.Suite)
	v.UUID("company_id", r.CompanyID)
	v.UUID("agent_id", r.AgentID)
	v.Range("pass_rate", r.PassRate, 0, 1)
	v.Positive("total_tests", r.TotalTests)
	v.Min("passed_tests", r.PassedTests, 0)
	if r.PassedTests > r.TotalTests {
		v.Add("passed_tests", "cannot exceed total_tests")
	}
	v.OneOf("trigger", r.Trigger, model.EvalTriggers...)
	return v
}

func (r *evalRunRequest) toModel(organizationID string) model.EvalRun {
	run := model.EvalRun{
		Suite:          r.Suite,
		Dataset:        r.Dataset,
		PassRate:       r.PassRate,
		TotalTests:     r.TotalTests,
		PassedTests:    r.PassedTests,
		Tokens:         r.Tokens,
		Duration:       r.Duration,
		Trigger:        r.Trigger,
		Payload:        r.Payload,
		Metadata:       r.Metadata,
		OrganizationID: organizationID,
	}
	if run.Trigger == "" {
		run.Trigger = model.TriggerManual
	}
	if r.CompanyID != "" {
		run.CompanyID = &r.CompanyID
	}
	if r.AgentID != "" {
		run.AgentID = &r.AgentID
	}
	return run
}

// ListEvalRuns retrieves recent eval runs in the caller's organization
// with optional company and suite filters. Capped at the 100 most
// recent runs, as the source did.
func ListEvalRuns(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("eval_run", "list")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().
		Preload("Company").
		Where("organization_id = ?", claims.OrganizationID)

	if companyID := c.QueryParam("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if suite := c.QueryParam("suite"); suite != "" {
		query = query.Where("suite = ?", suite)
	}

	var runs []model.EvalRun
	if result := query.Order("created_at desc").Limit(100).Find(&runs); result.Error != nil {
		log.Error("Failed to list eval runs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"eval_runs": runs})
}

// CreateEvalRun records an eval run for the caller's organization. An
// optional company reference is scope-checked before the write.
func CreateEvalRun(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("eval_run", "create")

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req evalRunRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse eval run request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	v := req.validate()
	if err := v.Err(); err != nil {
		log.Warn("Invalid eval run data", zap.Error(err))
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

	run := req.toModel(claims.OrganizationID)
	if result := db.Create(&run); result.Error != nil {
		log.Error("Failed to create eval run", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	db.Preload("Company").First(&run, "id = ?", run.ID)

	log.Info("Eval run recorded",
		zap.String("id", run.ID),
		zap.String("suite", run.Suite),
		zap.Float64("pass_rate", run.PassRate))

	return c.JSON(http.StatusCreated, echo.Map{"eval_run": run})
}

// ReportEvalRun is the unauthenticated webhook ingestion endpoint for
// external eval systems. The owning organization is resolved through
// the supplied company id; runs are always tagged trigger=webhook.
func ReportEvalRun(c echo.Context) error {
	log := logger.FromContext(c)

	var req evalRunRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse webhook payload", zap.Error(err))
		prometheus.WebhookCounter.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid webhook payload"})
	}

	if webhookToken != "" && req.Token != webhookToken {
		log.Warn("Webhook token mismatch")
		prometheus.WebhookCounter.WithLabelValues("unauthorized").Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
	}

	v := req.validate()
	if err := v.Err(); err != nil {
		log.Warn("Invalid webhook payload", zap.Error(err))
		prometheus.WebhookCounter.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid webhook payload", "details": v.Errs()})
	}

	db := database.GetDB()

	// The webhook has no session; the organization comes from the company
	var organizationID string
	if req.CompanyID != "" {
		var company model.Company
		if result := db.Select("organization_id").First(&company, "id = ?", req.CompanyID); result.Error == nil {
			organizationID = company.OrganizationID
		}
	}

	if organizationID == "" {
		log.Warn("Webhook could not resolve organization", zap.String("company_id", req.CompanyID))
		prometheus.WebhookCounter.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization not found, provide a valid company_id"})
	}

	run := req.toModel(organizationID)
	run.Trigger = model.TriggerWebhook

	if result := db.Create(&run); result.Error != nil {
		log.Error("Failed to persist webhook eval run", zap.Error(result.Error))
		prometheus.WebhookCounter.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	prometheus.WebhookCounter.WithLabelValues("accepted").Inc()
	log.Info("Webhook eval run recorded",
		zap.String("id", run.ID),
		zap.String("suite", run.Suite),
		zap.String("organization_id", run.OrganizationID))

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "eval_run": run})
}
