// Auth HTTP handlers.
//
// This file exposes the minimal auth surface backing the bearer-token
// middleware used by the rest of the API:
//   - POST /auth/register  (create a user, issue a token)
//   - POST /auth/login     (verify credentials, issue a token)
//
// Handlers are transport-thin: password/token mechanics live in
// internal/auth; this file only validates input and translates repo errors.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/samansalari/seenovate-appforge/internal/auth"
	"github.com/samansalari/seenovate-appforge/internal/domain"
	"github.com/samansalari/seenovate-appforge/internal/repo"
)

// AuthHandlers exposes the registration/login endpoints. It is constructed
// separately from Handlers because it depends on the database and signing
// secret directly rather than through a service interface.
type AuthHandlers struct {
	DB        *gorm.DB
	JWTSecret string
}

// NewAuthHandlers constructs an AuthHandlers bound to db and secret.
func NewAuthHandlers(db *gorm.DB, secret string) *AuthHandlers {
	return &AuthHandlers{DB: db, JWTSecret: secret}
}

// RegisterRequest is the JSON payload for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the JSON envelope for a successful register/login.
type AuthResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

// MeResponse is the JSON body for GET /auth/me.
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register godoc
// @ID          registerUser
// @Summary     Create a user account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "Email already registered"
// @Router      /auth/register [post]
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not hash password")
		return
	}

	user, err := repo.CreateUser(c.Request.Context(), h.DB, email, hash, req.Name)
	if err != nil {
		fail(c, http.StatusConflict, ErrCodeConflict, "an account with this email already exists")
		return
	}

	h.respondWithToken(c, user)
}

// Login godoc
// @ID          loginUser
// @Summary     Exchange credentials for a bearer token
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := repo.GetUserByEmail(c.Request.Context(), h.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not look up account")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		return
	}

	h.respondWithToken(c, user)
}

// Me godoc
// @ID          getCurrentUser
// @Summary     Report the caller's identity as verified by the bearer token
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.MeResponse
// @Failure     401  {object}  handlers.ErrorResponse "Missing or invalid token"
// @Router      /auth/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	id, _ := c.Get(auth.CtxUserID)
	email, _ := c.Get(auth.CtxUserEmail)
	name, _ := c.Get(auth.CtxUserName)
	ok(c, http.StatusOK, MeResponse{
		ID:    fmt.Sprint(id),
		Email: fmt.Sprint(email),
		Name:  fmt.Sprint(name),
	})
}

func (h *AuthHandlers) respondWithToken(c *gin.Context, user *domain.User) {
	token, err := auth.Issue(h.JWTSecret, user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}
	var resp AuthResponse
	resp.Token = token
	resp.User.ID = user.ID
	resp.User.Email = user.Email
	resp.User.Name = user.Name
	ok(c, http.StatusOK, resp)
}
