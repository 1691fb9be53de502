package handler

import (
	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecurringHandler handles recurring schedule endpoints
type RecurringHandler struct {
	BaseHandler
	schedules *appinvoicing.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(schedules *appinvoicing.RecurringService, log *zap.Logger) *RecurringHandler {
	return &RecurringHandler{
		BaseHandler: newBaseHandler(log),
		schedules:   schedules,
	}
}

// Create handles POST /recurring-schedules
func (h *RecurringHandler) Create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var body dto.ScheduleBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	schedule, err := h.schedules.CreateSchedule(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, schedule)
}

// Get handles GET /recurring-schedules/:id
func (h *RecurringHandler) Get(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	schedule, err := h.schedules.GetSchedule(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// List handles GET /recurring-schedules
func (h *RecurringHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var query dto.ListRequest
	if !h.bindQuery(c, &query) {
		return
	}

	schedules, err := h.schedules.ListSchedules(c.Request.Context(), userID, query.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if schedules == nil {
		schedules = []appinvoicing.ScheduleResponse{}
	}
	h.Success(c, schedules)
}

// Update handles PUT /recurring-schedules/:id
func (h *RecurringHandler) Update(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	var body dto.ScheduleBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	schedule, err := h.schedules.UpdateSchedule(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// Pause handles POST /recurring-schedules/:id/pause
func (h *RecurringHandler) Pause(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	schedule, err := h.schedules.Pause(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// Resume handles POST /recurring-schedules/:id/resume
func (h *RecurringHandler) Resume(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	schedule, err := h.schedules.Resume(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// RunNow handles POST /recurring-schedules/:id/run, producing the next invoice immediately
func (h *RecurringHandler) RunNow(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	invoice, err := h.schedules.RunNow(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Delete handles DELETE /recurring-schedules/:id
func (h *RecurringHandler) Delete(c *gin.Context) {
	userID, id, ok := h.userAndID(c)
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
