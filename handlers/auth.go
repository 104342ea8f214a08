package handlers

import (
	"mime"
	"net/http"

	"timesheet/apperror"
	"timesheet/config"
	"timesheet/middleware"
	"timesheet/response"
	"timesheet/services"
)

type AuthHandler struct {
	config *config.Config
	users  *services.UserService
}

func NewAuthHandler(cfg *config.Config, users *services.UserService) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		users:  users,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login accepts either a JSON body or an urlencoded form with username and
// password, and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			response.Error(w, r, apperror.Validation("invalid form data"))
			return
		}
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}

	if req.Username == "" || req.Password == "" {
		response.Error(w, r, apperror.Validation("username and password are required"))
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperror.Is(err, apperror.KindUnauthorized) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		response.Error(w, r, err)
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWT.Expiration)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.OK(w, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
