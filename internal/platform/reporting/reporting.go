package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/db"
)

// Scope says which caller attribute restricts a measure for non-admins.
type Scope string

const (
	ScopeHospital Scope = "hospital"
	ScopeUser     Scope = "user"
)

// MeasureDefinition defines a dashboard measure. SQL takes one parameter,
// $1, which is NULL for admins and the caller's hospital or user ID
// otherwise.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Scope       Scope  `json:"scope"`
	SQL         string `json:"-"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measureId"`
	MeasureName string                   `json:"measureName"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available dashboard measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "users-by-role",
		Name:        "Users by Role",
		Description: "Number of users grouped by role",
		Scope:       ScopeHospital,
		SQL: `SELECT role, COUNT(*) AS total FROM users
WHERE ($1::uuid IS NULL OR hospital_id = $1)
GROUP BY role ORDER BY role`,
	},
	{
		ID:          "hospitals-by-city",
		Name:        "Hospitals by City",
		Description: "Number of hospitals grouped by city",
		Scope:       ScopeHospital,
		SQL: `SELECT city, COUNT(*) AS total FROM hospitals
WHERE ($1::uuid IS NULL OR id = $1)
GROUP BY city ORDER BY total DESC, city`,
	},
	{
		ID:          "services-per-hospital",
		Name:        "Services per Hospital",
		Description: "Number of services offered by each hospital",
		Scope:       ScopeHospital,
		SQL: `SELECT h.name AS hospital, COUNT(s.id) AS services FROM hospitals h
LEFT JOIN services s ON s.hospital_id = h.id
WHERE ($1::uuid IS NULL OR h.id = $1)
GROUP BY h.id, h.name ORDER BY services DESC, h.name`,
	},
	{
		ID:          "unread-notifications",
		Name:        "Unread Notifications",
		Description: "Unread notifications grouped by type",
		Scope:       ScopeUser,
		SQL: `SELECT type, COUNT(*) AS unread FROM notifications
WHERE NOT read AND ($1::uuid IS NULL OR user_id = $1)
GROUP BY type ORDER BY unread DESC, type`,
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	db     db.Querier
	logger zerolog.Logger
}

// NewHandler creates a new reporting handler.
func NewHandler(q db.Querier, logger zerolog.Logger) *Handler {
	return &Handler{db: q, logger: logger}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleDirector, auth.RoleChiefDoctor))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure runs a measure restricted to the caller and returns the rows.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	arg, err := ScopeArg(p, measure.Scope)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL, arg)
	if err != nil {
		h.logger.Error().Err(err).Str("measure", measure.ID).Msg("measure evaluation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "measure evaluation failed")
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	})
}

// ScopeArg returns the $1 argument restricting a measure for p.
func ScopeArg(p auth.Principal, s Scope) (*uuid.UUID, error) {
	if p.IsAdmin() {
		return nil, nil
	}
	switch s {
	case ScopeUser:
		id := p.UserID
		return &id, nil
	case ScopeHospital:
		if p.HospitalID == nil {
			return nil, errNoHospital
		}
		id := *p.HospitalID
		return &id, nil
	}
	return nil, errUnknownScope
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
