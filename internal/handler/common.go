// Package handler implements the HTTP endpoints. Handlers bind and
// validate request payloads, apply authorization, call into the
// repositories and reply with a uniform JSON envelope:
//
//	{"status": true,  "data": ...}            on success
//	{"status": false, "message": "..."}       on failure
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/krizzk/be-koszhunter/internal/authz"
)

type envelope struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: true, Data: data})
}

func okMessage(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, envelope{Status: true, Data: data, Message: msg})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{Status: false, Message: msg})
}

// caller builds the authorization subject from the identity stored by
// the JWT middleware.
func caller(c echo.Context) authz.Caller {
	id, _ := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)
	return authz.Caller{ID: id, Role: role}
}

// pathID parses a numeric path parameter, rejecting zero and garbage.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// parsePositive parses a positive integer query value.
func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (val *Validator) Validate(i any) error {
	if err := val.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bind decodes and validates a request payload in one step.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return c.Validate(req)
}
