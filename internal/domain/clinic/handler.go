package clinic

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisys/hms/internal/platform/auth"
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
	api.GET("/patients/me", h.MyPatientRecord)
	api.GET("/patients/:id", h.GetPatient)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	staff := api.Group("", auth.RequireRole(auth.RoleChiefDoctor, auth.RoleDoctor))
	staff.GET("/patients", h.ListPatients)
	staff.POST("/patients", h.CreatePatient)
	staff.PUT("/patients/:id", h.UpdatePatient)

	directors := api.Group("", auth.RequireRole(auth.RoleDirector))
	directors.POST("/doctors", h.CreateDoctor)
	directors.PUT("/doctors/:id", h.UpdateDoctor)
	directors.DELETE("/doctors/:id", h.DeleteDoctor)

	api.DELETE("/patients/:id", h.DeletePatient, auth.RequireRole(auth.RoleAdmin))
}

func fail(err error) error {
	return apierror.From(err, ErrInvalid)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var pt Patient
	if err := c.Bind(&pt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), p, &pt); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, pt)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pt, err := h.svc.GetPatient(c.Request().Context(), p, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, PatientToView(pt))
}

func (h *Handler) MyPatientRecord(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	pt, err := h.svc.MyPatientRecord(c.Request().Context(), p)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, PatientToView(pt))
}

func (h *Handler) ListPatients(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	q := pagination.FromContext(c)
	page, err := h.svc.ListPatients(c.Request().Context(), p, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(listquery.ShapePage(page, PatientToView), q))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var pt Patient
	if err := c.Bind(&pt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pt.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), p, &pt); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, pt)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), p, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), p, &d); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), p, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, DoctorToView(d))
}

func (h *Handler) ListDoctors(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	q := pagination.FromContext(c)
	page, err := h.svc.ListDoctors(c.Request().Context(), p, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(listquery.ShapePage(page, DoctorToView), q))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDoctor(c.Request().Context(), p, &d); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), p, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
