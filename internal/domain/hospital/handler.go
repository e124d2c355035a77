package hospital

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/auth"
	"github.com/medisys/hms/internal/platform/importer"
	"github.com/medisys/hms/internal/platform/listquery"
	"github.com/medisys/hms/pkg/apierror"
	"github.com/medisys/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/hospitals", h.ListHospitals)
	api.GET("/hospitals/:id", h.GetHospital)
	api.GET("/services", h.ListServices)
	api.GET("/services/:id", h.GetService)

	// Directors manage their own hospital; the service checks ownership.
	manage := api.Group("", auth.RequireRole(auth.RoleDirector))
	manage.PUT("/hospitals/:id", h.UpdateHospital)
	manage.POST("/services", h.CreateService)
	manage.PUT("/services/:id", h.UpdateService)
	manage.DELETE("/services/:id", h.DeleteService)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/hospitals", h.CreateHospital)
	admin.DELETE("/hospitals/:id", h.DeleteHospital)
	admin.POST("/hospitals/import", h.ImportHospitals)
}

func fail(err error) error {
	return apierror.From(err, ErrInvalid, importer.ErrMalformed, importer.ErrUnsupportedFormat)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Hospital Handlers --

func (h *Handler) CreateHospital(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateHospital(c.Request().Context(), p, &hosp); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	q := pagination.FromContext(c)
	page, err := h.svc.ListHospitals(c.Request().Context(), q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page, q))
}

func (h *Handler) UpdateHospital(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hosp.ID = id
	if err := h.svc.UpdateHospital(c.Request().Context(), p, &hosp); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) DeleteHospital(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteHospital(c.Request().Context(), p, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImportHospitals accepts a multipart "file" field holding CSV or XLSX.
// dryRun=true reports what would be imported without writing.
func (h *Handler) ImportHospitals(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	records, err := importer.ReadFile(fh)
	if err != nil {
		return fail(err)
	}
	dryRun, _ := strconv.ParseBool(c.QueryParam("dryRun"))

	report, err := h.svc.ImportHospitals(c.Request().Context(), p, records, dryRun)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, report)
}

// -- Service Handlers --

func (h *Handler) CreateService(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var ms MedicalService
	if err := c.Bind(&ms); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateService(c.Request().Context(), p, &ms); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, ToView(&ms))
}

func (h *Handler) GetService(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ms, err := h.svc.GetService(c.Request().Context(), p, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, ToView(ms))
}

func (h *Handler) ListServices(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	q := pagination.FromContext(c)
	page, err := h.svc.ListServices(c.Request().Context(), p, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(listquery.ShapePage(page, ToView), q))
}

func (h *Handler) UpdateService(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var ms MedicalService
	if err := c.Bind(&ms); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ms.ID = id
	if err := h.svc.UpdateService(c.Request().Context(), p, &ms); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, ToView(&ms))
}

func (h *Handler) DeleteService(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteService(c.Request().Context(), p, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
