package handler

import (
	mid "orbital/internal/middleware"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires the full HTTP surface onto an Echo instance
func RegisterRoutes(e *echo.Echo) {
	// Operational endpoints
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", HealthCheck)

	// Public auth endpoints
	e.POST("/api/auth/register", Register)
	e.POST("/api/auth/login", Login)

	// Eval webhook: unauthenticated ingestion, org resolved via company_id
	e.POST("/api/evals/report", ReportEvalRun)

	// Companies, with the legacy /api/customers alias bound to the same
	// handlers
	companyAPI := e.Group("/api/companies", mid.AuthMiddleware)
	companyAPI.GET("", ListCompanies)
	companyAPI.POST("", CreateCompany)
	companyAPI.GET("/:id", GetCompany)
	companyAPI.PATCH("/:id", UpdateCompany)
	companyAPI.DELETE("/:id", DeleteCompany)

	customerAPI := e.Group("/api/customers", mid.AuthMiddleware)
	customerAPI.GET("", ListCompanies)
	customerAPI.POST("", CreateCompany)
	customerAPI.GET("/:id", GetCompany)
	customerAPI.PATCH("/:id", UpdateCompany)
	customerAPI.DELETE("/:id", DeleteCompany)

	// Integrations and their children
	integrationAPI := e.Group("/api/integrations", mid.AuthMiddleware)
	integrationAPI.GET("/templates", ListTemplates)
	integrationAPI.POST("/templates", CreateTemplate)
	integrationAPI.GET("", ListIntegrations)
	integrationAPI.POST("", CreateIntegration)
	integrationAPI.GET("/:id", GetIntegration)
	integrationAPI.PATCH("/:id", UpdateIntegration)
	integrationAPI.DELETE("/:id", DeleteIntegration)
	integrationAPI.POST("/:id/checklist", CreateChecklistItem)

	checklistAPI := e.Group("/api/checklist", mid.AuthMiddleware)
	checklistAPI.PATCH("/:id", UpdateChecklistItem)
	checklistAPI.DELETE("/:id", DeleteChecklistItem)

	// Tasks
	taskAPI := e.Group("/api/tasks", mid.AuthMiddleware)
	taskAPI.GET("", ListTasks)
	taskAPI.POST("", CreateTask)
	taskAPI.GET("/:id", GetTask)
	taskAPI.PATCH("/:id", UpdateTask)
	taskAPI.DELETE("/:id", DeleteTask)
	taskAPI.PATCH("/:id/patch", UpdateTaskStatus)

	// Notes
	noteAPI := e.Group("/api/notes", mid.AuthMiddleware)
	noteAPI.GET("", ListNotes)
	noteAPI.POST("", CreateNote)
	noteAPI.GET("/:id", GetNote)
	noteAPI.PATCH("/:id", UpdateNote)
	noteAPI.DELETE("/:id", DeleteNote)

	// Eval runs
	evalAPI := e.Group("/api/evals", mid.AuthMiddleware)
	evalAPI.GET("", ListEvalRuns)
	evalAPI.POST("", CreateEvalRun)

	// Cross-entity search
	e.GET("/api/search", Search, mid.AuthMiddleware)
}
