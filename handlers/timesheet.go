package handlers

import (
	"net/http"

	"timesheet/middleware"
	"timesheet/models"
	"timesheet/response"
	"timesheet/services"
)

type TimesheetHandler struct {
	timesheets *services.TimesheetService
}

func NewTimesheetHandler(timesheets *services.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheets: timesheets}
}

func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTimesheetInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	timesheet, err := h.timesheets.Create(r.Context(), user, input)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, timesheet)
}

func (h *TimesheetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	timesheet, err := h.timesheets.Submit(r.Context(), id, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, timesheet)
}

func (h *TimesheetHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	timesheet, err := h.timesheets.Approve(r.Context(), id, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, timesheet)
}

func (h *TimesheetHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var input services.RejectTimesheetInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	timesheet, err := h.timesheets.Reject(r.Context(), id, input, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, timesheet)
}

// MyTimesheets lists the caller's timesheets, optionally filtered by status,
// year and week_number.
func (h *TimesheetHandler) MyTimesheets(w http.ResponseWriter, r *http.Request) {
	var filter models.TimesheetFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.Status(raw)
		filter.Status = &status
	}
	var err error
	if filter.Year, err = queryInt(r, "year"); err != nil {
		response.Error(w, r, err)
		return
	}
	if filter.WeekNumber, err = queryInt(r, "week_number"); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	summaries, err := h.timesheets.ListForOwner(r.Context(), user.ID, filter)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, summaries)
}

func (h *TimesheetHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	summaries, err := h.timesheets.ListPendingForManager(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, summaries)
}

func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	detail, err := h.timesheets.GetWithEntries(r.Context(), id, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, detail)
}

func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if err := h.timesheets.Delete(r.Context(), id, user); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}
