package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/karibuapp/payout/internal/models"
	"github.com/karibuapp/payout/internal/service"
)

// UserService is interface of user registration and login
type UserService interface {
	// Register creates new user
	Register(ctx context.Context, login, password, displayName, phone string) (*models.User, error)
	// Login verifies credentials and returns session token
	Login(ctx context.Context, login, password string) (string, error)
}

// UserHandler represents HTTP handler for user-related requests
type UserHandler struct {
	svc   UserService
	token service.TokenService
}

// NewUserHandler creates new UserHandler instance
func NewUserHandler(svc UserService, token service.TokenService) *UserHandler {
	return &UserHandler{
		svc:   svc,
		token: token,
	}
}

type registerRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

// RegisterUser registers and authenticates new user
// 200 — пользователь зарегистрирован и аутентифицирован;
// 400 — неверный формат запроса;
// 409 — логин уже занят;
// 500 — внутренняя ошибка сервера.
func (uh *UserHandler) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var regReq registerRequest
		if err := json.NewDecoder(r.Body).Decode(&regReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if regReq.Login == "" || regReq.Password == "" {
			http.Error(w, "login and password are required", http.StatusBadRequest)
			return
		}

		user, err := uh.svc.Register(r.Context(), regReq.Login, regReq.Password, regReq.DisplayName, regReq.Phone)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrConflictData):
				http.Error(w, "login already taken", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		token, err := uh.token.CreateToken(user)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
		})

		w.WriteHeader(http.StatusOK)
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginUser authenticates user and sets session cookie
// 200 — пользователь аутентифицирован;
// 400 — неверный формат запроса;
// 401 — неверная пара логин/пароль;
// 500 — внутренняя ошибка сервера.
func (uh *UserHandler) LoginUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logReq loginRequest
		if err := json.NewDecoder(r.Body).Decode(&logReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		token, err := uh.svc.Login(r.Context(), logReq.Login, logReq.Password)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidCredentials):
				http.Error(w, "invalid login or password", http.StatusUnauthorized)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
		})

		w.WriteHeader(http.StatusOK)
	}
}
