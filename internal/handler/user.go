package handler

import (
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/config"
	"github.com/krizzk/be-koszhunter/internal/model"
	"github.com/krizzk/be-koszhunter/internal/repository"
	"github.com/krizzk/be-koszhunter/internal/utils"
)

// UserHandler serves registration, login and profile management.
type UserHandler struct {
	Users   *repository.UserRepo
	Reports *repository.ReportRepo
	Cfg     config.Config
	Log     *logrus.Logger
}

type userJSON struct {
	ID             uint64 `json:"id"`
	UUID           string `json:"uuid"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	PhoneNumber    string `json:"phone_number"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toUserJSON(u *model.User) userJSON {
	return userJSON{
		ID:             u.ID,
		UUID:           u.UUID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type registerRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=OWNER SOCIETY"`
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
}

// Register creates a new user account.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to hash password")
	}
	u := model.User{
		UUID:         uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		PhoneNumber:  req.PhoneNumber,
	}
	switch err := h.Users.Create(c.Request().Context(), &u); {
	case errors.Is(err, repository.ErrEmailTaken):
		return fail(c, http.StatusConflict, "email already registered")
	case errors.Is(err, repository.ErrPhoneTaken):
		return fail(c, http.StatusConflict, "phone number already registered")
	case err != nil:
		h.Log.WithError(err).Error("failed to create user")
		return fail(c, http.StatusInternalServerError, "failed to create user")
	}
	return okMessage(c, http.StatusCreated, "user registered", toUserJSON(&u))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues an access token.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !utils.VerifyPassword(u.PasswordHash, req.Password)) {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		h.Log.WithError(err).Error("login lookup failed")
		return fail(c, http.StatusInternalServerError, "login failed")
	}

	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, ttl)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to issue token")
	}
	return ok(c, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserJSON(u),
	})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	u, err := h.Users.GetByID(c.Request().Context(), caller(c).ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	return ok(c, http.StatusOK, toUserJSON(u))
}

// List returns users matching an optional name search. Owner only.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to list users")
	}
	out := make([]userJSON, 0, len(users))
	for i := range users {
		out = append(out, toUserJSON(&users[i]))
	}
	return ok(c, http.StatusOK, out)
}

type updateUserRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=8,max=20"`
}

// Update modifies the caller's own profile. Empty fields keep their
// current value; the role is immutable.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, caller(c).ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.PhoneNumber != "" {
		u.PhoneNumber = req.PhoneNumber
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "failed to hash password")
		}
		u.PasswordHash = hash
	}
	switch err := h.Users.Update(ctx, u); {
	case errors.Is(err, repository.ErrEmailTaken):
		return fail(c, http.StatusConflict, "email already registered")
	case errors.Is(err, repository.ErrPhoneTaken):
		return fail(c, http.StatusConflict, "phone number already registered")
	case err != nil:
		h.Log.WithError(err).Error("failed to update user")
		return fail(c, http.StatusInternalServerError, "failed to update user")
	}
	return okMessage(c, http.StatusOK, "profile updated", toUserJSON(u))
}

// UpdatePicture stores an uploaded profile picture and records its
// filename on the caller's profile.
func (h *UserHandler) UpdatePicture(c echo.Context) error {
	file, err := c.FormFile("profile_picture")
	if err != nil {
		return fail(c, http.StatusBadRequest, "profile_picture file is required")
	}
	name, err := saveUpload(file, filepath.Join(h.Cfg.PublicDir, "profiles"))
	if err != nil {
		h.Log.WithError(err).Error("failed to store profile picture")
		return fail(c, http.StatusInternalServerError, "failed to store picture")
	}
	if err := h.Users.UpdatePicture(c.Request().Context(), caller(c).ID, name); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to update picture")
	}
	return okMessage(c, http.StatusOK, "picture updated", map[string]string{"profile_picture": name})
}

// Delete removes a user account. A society user may delete only itself;
// an owner may delete any account.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cl := caller(c)
	if cl.Role != model.RoleOwner && cl.ID != id {
		return fail(c, http.StatusForbidden, "cannot delete another user")
	}
	if _, err := h.Users.GetByID(c.Request().Context(), id); errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, "user not found")
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "failed to load user")
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return fail(c, http.StatusInternalServerError, "failed to delete user")
	}
	return okMessage(c, http.StatusOK, "user deleted", nil)
}

// Dashboard returns platform-wide aggregate counts. Owner only.
func (h *UserHandler) Dashboard(c echo.Context) error {
	d, err := h.Reports.GetDashboard(c.Request().Context())
	if err != nil {
		h.Log.WithError(err).Error("failed to compute dashboard")
		return fail(c, http.StatusInternalServerError, "failed to compute dashboard")
	}
	return ok(c, http.StatusOK, d)
}

// saveUpload writes a multipart upload under dir with a uuid-prefixed
// filename and returns the stored name.
func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}
