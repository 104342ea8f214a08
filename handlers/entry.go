package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"timesheet/logger"
	"timesheet/middleware"
	"timesheet/response"
	"timesheet/services"
)

type EntryHandler struct {
	entries *services.EntryService
	reports *services.ReportService
}

func NewEntryHandler(entries *services.EntryService, reports *services.ReportService) *EntryHandler {
	return &EntryHandler{
		entries: entries,
		reports: reports,
	}
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateEntryInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	entry, err := h.entries.Create(r.Context(), input, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, entry)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	entry, err := h.entries.Get(r.Context(), id, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, entry)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	var input services.UpdateEntryInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	entry, err := h.entries.Update(r.Context(), id, input, user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, entry)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if err := h.entries.Delete(r.Context(), id, user); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *EntryHandler) MyEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	entries, err := h.entries.ListOwn(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, entries)
}

func (h *EntryHandler) TeamEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	entries, err := h.entries.ListForManagerTeam(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, entries)
}

// ExportTeamEntries downloads the team's entries for one ISO week as CSV.
func (h *EntryHandler) ExportTeamEntries(w http.ResponseWriter, r *http.Request) {
	year, err := requiredQueryInt(r, "year")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	week, err := requiredQueryInt(r, "week_number")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	rows, err := h.reports.TeamEntries(r.Context(), user, year, week)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteTeamEntriesCSV(&buf, rows); err != nil {
		response.Error(w, r, err)
		return
	}

	logger.Info().
		Uint("manager_id", user.ID).
		Int("year", year).
		Int("week_number", week).
		Int("rows", len(rows)).
		Msg("team entries exported")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", services.ExportFilename(year, week)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
