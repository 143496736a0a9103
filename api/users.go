package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"taskboard-api/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !strings.Contains(r.Email, "@") {
		return domain.ValidationError{Field: "email", Reason: "must be an email address"}
	}
	if len(r.Password) < 8 {
		return domain.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	return nil
}

func registerUser(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := req.validate(); err != nil {
			return respondError(c, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return respondError(c, err)
		}

		user := domain.User{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			CreatedAt:    time.Now(),
		}
		if err := store.InsertUser(c.Request().Context(), user); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, authResponse{ID: user.ID})
	}
}

func loginUser(store Storage, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		user, err := store.FetchUserByEmail(c.Request().Context(), email)
		if err != nil {
			// An unknown email reads the same as a bad password.
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			}
			return respondError(c, err)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		}

		if issuer == nil {
			return c.JSON(http.StatusNotImplemented, errorResponse{Error: "token issuance is delegated to the identity provider"})
		}
		token, err := issuer.IssueToken(user.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, authResponse{ID: user.ID, Token: token})
	}
}

func listUsers(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := actorFromRequest(c, auth); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		users, err := store.FetchUsers(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		public := make([]domain.PublicUser, 0, len(users))
		for _, u := range users {
			public = append(public, u.Public())
		}
		return c.JSON(http.StatusOK, public)
	}
}
