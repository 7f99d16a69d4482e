package handler

import (
	"net/http"
	"strings"

	"orbital/internal/model"
	"orbital/pkg/database"
	"orbital/pkg/logger"
	"orbital/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Lightweight per-bucket result rows; search returns identifiers and a
// display hint, not full entities.
type companyHit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
}

type integrationHit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type taskHit struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type noteHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

const searchLimit = 5

// Search runs the four scoped substring queries concurrently and unions
// the buckets. Queries shorter than two characters short-circuit to an
// empty result without touching the database. A failure in any
// sub-query fails the whole search.
func Search(c echo.Context) error {
	log := logger.FromContext(c)

	claims, ok := getClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := c.QueryParam("q")
	if len(query) < 2 {
		return c.JSON(http.StatusOK, echo.Map{"results": echo.Map{}})
	}

	prometheus.SearchCounter.Inc()
	pattern := "%" + strings.ToLower(query) + "%"
	orgID := claims.OrganizationID
	db := database.GetDB()

	var (
		companies    []companyHit
		integrations []integrationHit
		tasks        []taskHit
		notes        []noteHit
	)

	g, ctx := errgroup.WithContext(c.Request().Context())

	g.Go(func() error {
		return db.WithContext(ctx).Model(&model.Company{}).
			Where("organization_id = ? AND LOWER(name) LIKE ?", orgID, pattern).
			Limit(searchLimit).
			Find(&companies).Error
	})
	g.Go(func() error {
		return db.WithContext(ctx).Model(&model.Integration{}).
			Where("organization_id = ? AND LOWER(name) LIKE ?", orgID, pattern).
			Limit(searchLimit).
			Find(&integrations).Error
	})
	g.Go(func() error {
		return db.WithContext(ctx).Model(&model.Task{}).
			Where("owner_id IN (?) AND LOWER(title) LIKE ?", model.OrgUserIDs(db, orgID), pattern).
			Limit(searchLimit).
			Find(&tasks).Error
	})
	g.Go(func() error {
		return db.WithContext(ctx).Model(&model.Note{}).
			Where("author_id IN (?) AND (LOWER(title) LIKE ? OR LOWER(content) LIKE ?)",
				model.OrgUserIDs(db, orgID), pattern, pattern).
			Limit(searchLimit).
			Find(&notes).Error
	})

	if err := g.Wait(); err != nil {
		log.Error("Search failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"results": echo.Map{
			"companies":    companies,
			"integrations": integrations,
			"tasks":        tasks,
			"notes":        notes,
		},
	})
}
