package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/oggyb/smsoffice-gateway/internal/domain/dispatch"
	"github.com/oggyb/smsoffice-gateway/internal/request"
	"github.com/oggyb/smsoffice-gateway/internal/response"
	"github.com/oggyb/smsoffice-gateway/internal/scheduler"
	"github.com/oggyb/smsoffice-gateway/internal/service"
	"github.com/oggyb/smsoffice-gateway/smsoffice"
)

// SMSHandler wires HTTP endpoints to the SMS service and the retention
// scheduler.
type SMSHandler struct {
	smsSvc service.SMSService
	schSvc scheduler.SchedulerService
}

// NewSMSHandler constructs a new SMSHandler with its dependencies.
func NewSMSHandler(smsSvc service.SMSService, schSvc scheduler.SchedulerService) *SMSHandler {
	return &SMSHandler{
		smsSvc: smsSvc,
		schSvc: schSvc,
	}
}

// statusFor maps a send failure category to the HTTP status returned to clients.
func statusFor(c smsoffice.Category) int {
	switch c {
	case smsoffice.CategorySubscription:
		return http.StatusPaymentRequired
	case smsoffice.CategoryInternalServer:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// sendStatus maps a Send error to the HTTP status returned to clients.
func sendStatus(err error) int {
	if errors.Is(err, service.ErrIdempotencyInFlight) {
		return http.StatusConflict
	}
	c := smsoffice.CategoryOf(err)
	if c == smsoffice.CategoryNone {
		return http.StatusInternalServerError
	}
	return statusFor(c)
}

// Send godoc
// @Summary     Send SMS
// @Description Sends one message to the given numbers through SMSOffice and returns the recorded dispatch.
// @Tags        sms
// @Accept      json
// @Produce     json
// @Param       request         body   request.SendRequest true  "Message and destinations"
// @Param       Idempotency-Key header string              false "Replays the first dispatch recorded for this key"
// @Success     200 {object} response.DispatchResponse
// @Failure     400 {object} response.JSONResponse
// @Failure     402 {object} response.JSONResponse
// @Failure     409 {object} response.JSONResponse
// @Failure     500 {object} response.JSONResponse
// @Failure     503 {object} response.JSONResponse
// @Router      /sms [post]
func (h *SMSHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req request.SendRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := h.smsSvc.Send(r.Context(), service.SendCommand{
		Content:        req.Content,
		Destinations:   req.Destinations,
		IdempotencyKey: r.Header.Get(request.IdempotencyHeader),
	})
	if err != nil {
		var details interface{}
		if d != nil {
			details = response.FromDispatch(d)
		}
		response.RespondErrorDetails(w, sendStatus(err), err.Error(), details)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDispatch(d))
}

// GetHistory godoc
// @Summary     List dispatches
// @Description Returns a paginated list of recorded dispatches, newest first.
// @Tags        sms
// @Produce     json
// @Param       page  query int false "Page number"         default(1)
// @Param       limit query int false "Page size (max 100)" default(20)
// @Success     200 {object} response.DispatchHistoryResponse
// @Failure     500 {object} response.JSONResponse
// @Router      /sms [get]
func (h *SMSHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	page := 1
	limit := 20

	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}

	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	items, total, err := h.smsSvc.History(r.Context(), page, limit)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := response.DispatchHistoryPayload{
		Items: response.FromDispatches(items),
		Total: total,
		Page:  page,
		Limit: limit,
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// GetDispatch godoc
// @Summary     Get dispatch
// @Description Returns one recorded dispatch.
// @Tags        sms
// @Produce     json
// @Param       id path string true "Dispatch ID"
// @Success     200 {object} response.DispatchResponse
// @Failure     400 {object} response.JSONResponse
// @Failure     404 {object} response.JSONResponse
// @Router      /sms/{id} [get]
func (h *SMSHandler) GetDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid dispatch id")
		return
	}

	d, err := h.smsSvc.Get(r.Context(), id)
	if errors.Is(err, dispatch.ErrNotFound) {
		response.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDispatch(d))
}

// GetStats godoc
// @Summary     Outcome counters
// @Description Returns how many sends ended in each outcome.
// @Tags        sms
// @Produce     json
// @Success     200 {object} response.StatsResponse
// @Failure     500 {object} response.JSONResponse
// @Router      /sms/stats [get]
func (h *SMSHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.smsSvc.Stats(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := make(map[string]int64, len(stats))
	for o, n := range stats {
		payload[string(o)] = n
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// StartStopRetention godoc
// @Summary     Control retention
// @Description Starts or stops the background pruning of old dispatches.
// @Tags        retention
// @Accept      json
// @Produce     json
// @Param       request body request.SchedulerRequest true "Scheduler action (start|stop)"
// @Success     200 {object} response.SchedulerControlResponse
// @Failure     400 {object} response.JSONResponse
// @Router      /retention [post]
func (h *SMSHandler) StartStopRetention(w http.ResponseWriter, r *http.Request) {
	var req request.SchedulerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "start":
		if err := h.schSvc.Start(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{
			Message: "retention started",
		})

	case "stop":
		if err := h.schSvc.Stop(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{
			Message: "retention stopped",
		})

	default:
		response.RespondError(w, http.StatusBadRequest, "action must be 'start' or 'stop'")
	}
}
