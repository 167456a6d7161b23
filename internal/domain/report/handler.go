package report

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mcu/report/internal/domain/patient"
	"github.com/mcu/report/pkg/pagination"
)

// Handler provides the HTTP surface of the report generator.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the report-generator endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/report-generator")
	g.POST("/generate", h.Generate)
	g.POST("/generate-appointment-report", h.GenerateAppointment)
	g.POST("/awaited-generate", h.AwaitedGenerate)
	g.GET("/reports", h.ListReports)
}

type generateRequest struct {
	AppointmentPatientID string `json:"appointment_patient_id"`
	AppointmentID        string `json:"appointment_id"`
}

type generateAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type generateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	BatchID string `json:"batch_id,omitempty"`
	Queued  int    `json:"queued,omitempty"`
}

func language(c echo.Context) string {
	if lang := c.QueryParam("language"); lang != "" {
		return lang
	}
	return "id"
}

func httpError(err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, patient.ErrDatabase):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Generate queues one report job and returns immediately with a batch ID.
func (h *Handler) Generate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppointmentPatientID == "" || req.AppointmentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_patient_id and appointment_id are required")
	}

	batchID, err := h.svc.Queue(c.Request().Context(), req.AppointmentPatientID, req.AppointmentID, language(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, generateResponse{
		Status:  "processing",
		Message: "Report generation has been queued",
		BatchID: batchID,
	})
}

// GenerateAppointment queues a job for every checked-out patient of an
// appointment.
func (h *Handler) GenerateAppointment(c echo.Context) error {
	var req generateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppointmentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_id is required")
	}

	queued, err := h.svc.QueueAppointment(c.Request().Context(), req.AppointmentID, language(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, generateResponse{
		Status:  "processing",
		Message: "Report generation has been queued",
		Queued:  queued,
	})
}

// AwaitedGenerate runs the pipeline synchronously and returns the delivered
// URL.
func (h *Handler) AwaitedGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppointmentPatientID == "" || req.AppointmentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_patient_id and appointment_id are required")
	}

	st, err := h.svc.GenerateNow(c.Request().Context(), req.AppointmentPatientID, req.AppointmentID, language(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Report generation has been completed",
		"data": map[string]string{
			"report_url": st.DeliveredURL,
		},
	})
}

// ListReports pages report status rows for an appointment.
func (h *Handler) ListReports(c echo.Context) error {
	appointmentID := c.QueryParam("appointment_id")
	if appointmentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_id is required")
	}

	p := pagination.FromContext(c)
	rows, total, err := h.svc.ListReports(c.Request().Context(), appointmentID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rows, total, p.Limit, p.Offset))
}
