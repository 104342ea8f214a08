package handlers

import (
	"net/http"

	"timesheet/middleware"
	"timesheet/response"
	"timesheet/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, user)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.OK(w, middleware.GetUserFromContext(r.Context()))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input services.ChangePasswordInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	if err := h.users.ChangePassword(r.Context(), user, input); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, user)
}

func (h *UserHandler) Team(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	members, err := h.users.TeamMembers(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, members)
}
