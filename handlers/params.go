package handlers

import (
	"net/http"
	"strconv"

	"timesheet/apperror"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// queryInt returns nil when the parameter is absent.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be an integer", name)
	}
	return &v, nil
}

func requiredQueryInt(r *http.Request, name string) (int, error) {
	v, err := queryInt(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperror.Validation("%s is required", name)
	}
	return *v, nil
}
