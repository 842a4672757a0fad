package handlers

import (
	"errors"
	"net/http"

	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
)

type tokenData struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// Login exchanges a username and password for a bearer token
// @Summary      Get access token
// @Description  OAuth2 password flow: send username and password as form fields.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  Response{data=tokenData}
// @Failure      401       {object}  Response{error=string}
// @Router       /token [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := h.svc.Authenticate(r.Context(), username, password)
	if errors.Is(err, ledger.ErrPermission) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenData{AccessToken: token, TokenType: "bearer", User: u})
}

// CreateUser registers a new user
// @Summary      Register user
// @Description  Create a user account. Usernames and emails are unique.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user  body      models.UserInput  true  "User contents"
// @Success      201   {object}  Response{data=models.User}
// @Failure      400   {object}  Response{error=string}
// @Router       /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	u, err := h.svc.RegisterUser(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ListUsers lists the other users
// @Summary      List users
// @Description  Get every user except the caller.
// @Tags         users
// @Produce      json
// @Success      200  {object}  Response{data=[]models.User}
// @Router       /users [get]
// @Security     BearerAuth
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetMe returns the caller
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  Response{data=models.User}
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.User(r.Context(), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// SearchUsers finds users by username
// @Summary      Search users
// @Description  Case-insensitive username search over the other users.
// @Tags         users
// @Produce      json
// @Param        search  query     string  true  "At least 2 characters"
// @Success      200     {object}  Response{data=[]models.User}
// @Failure      400     {object}  Response{error=string}
// @Router       /users/search [get]
// @Security     BearerAuth
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.SearchUsers(r.Context(), currentUser(r), r.URL.Query().Get("search"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
