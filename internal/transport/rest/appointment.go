package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barberapp/internal/domain"
)

// @Summary Free slots
// @Description Lists bookable start times of a barber on a date. Without service the barber's first service is used.
// @Tags Appointments
// @Produce json
// @Param barberId query string true "Barber ID"
// @Param date query string true "Date, YYYY-MM-DD"
// @Param service query string false "Service name"
// @Success 200 {object} successResponseBody{data=domain.Availability}
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /appointments/availability [get]
func (h *Handler) getAvailability(c *gin.Context) {
	barberID, err := uuid.Parse(c.Query("barberId"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, domain.ErrInvalidID.Code, "barberId must be a valid id")
		return
	}

	date := c.Query("date")
	if date == "" {
		errorResponse(c, http.StatusBadRequest, domain.ErrInvalidDate.Code, domain.ErrInvalidDate.Message)
		return
	}

	availability, err := h.services.Appointment.Availability(c.Request.Context(), barberID, date, c.Query("service"))
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, availability)
}

// @Summary Book an appointment
// @Description Reserves a slot. Returns 409 when the interval was taken in the meantime.
// @Tags Appointments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body domain.CreateAppointmentDTO true "Reservation"
// @Success 201 {object} successResponseBody{data=map[string]domain.Appointment}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Failure 503 {object} errorResponseBody
// @Router /appointments [post]
func (h *Handler) createAppointment(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	appointment, err := h.services.Appointment.Reserve(c.Request.Context(), principal, req)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	createdResponse(c, gin.H{"appointment": appointment})
}

// @Summary My appointments
// @Tags Appointments
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Comma separated statuses"
// @Param upcoming query bool false "Only future active appointments"
// @Success 200 {object} successResponseBody{data=map[string][]domain.Appointment}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Router /appointments/user [get]
func (h *Handler) getUserAppointments(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}

	upcoming, _ := strconv.ParseBool(c.DefaultQuery("upcoming", "false"))

	appointments, err := h.services.Appointment.ListForUser(c.Request.Context(), principal, statuses, upcoming)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}
	if appointments == nil {
		appointments = []domain.Appointment{}
	}

	successResponse(c, http.StatusOK, gin.H{"appointments": appointments})
}

// @Summary Barber's appointments
// @Tags Appointments
// @Produce json
// @Security ApiKeyAuth
// @Param date query string false "Date, YYYY-MM-DD"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} successResponseBody{data=map[string][]domain.Appointment}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Router /appointments/barber [get]
func (h *Handler) getBarberAppointments(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}

	appointments, err := h.services.Appointment.ListForBarber(c.Request.Context(), principal, c.Query("date"), statuses)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}
	if appointments == nil {
		appointments = []domain.Appointment{}
	}

	successResponse(c, http.StatusOK, gin.H{"appointments": appointments})
}

// @Summary Change appointment status
// @Description pending→confirmed|cancelled, confirmed→completed|cancelled. Customers may only cancel.
// @Tags Appointments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Appointment ID"
// @Param input body domain.UpdateAppointmentStatusDTO true "New status"
// @Success 200 {object} successResponseBody{data=map[string]domain.Appointment}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /appointments/{id}/status [patch]
func (h *Handler) updateAppointmentStatus(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateAppointmentStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	appointment, err := h.services.Appointment.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"appointment": appointment})
}

func parseStatuses(c *gin.Context) ([]domain.AppointmentStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}

	var statuses []domain.AppointmentStatus
	for _, part := range strings.Split(raw, ",") {
		status := domain.AppointmentStatus(strings.ToLower(strings.TrimSpace(part)))
		switch status {
		case domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed,
			domain.AppointmentStatusCompleted, domain.AppointmentStatusCancelled:
			statuses = append(statuses, status)
		default:
			errorResponse(c, http.StatusBadRequest, "INVALID_STATUS", "unknown status "+strconv.Quote(part))
			return nil, false
		}
	}
	return statuses, true
}
