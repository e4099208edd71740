// Package types provides type definitions for the data exchanged with the JobPlus backend.
package types

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernamePattern is the set of usernames the backend accepts at registration.
var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// StatusOK is the status value the backend reports on success.
const StatusOK = "OK"

// ResultSuccess is the alternate success marker some history endpoints return.
const ResultSuccess = "SUCCESS"

// Session identifies the authenticated user. It lives in process memory only.
type Session struct {
	UserID   string `json:"user_id"`
	FullName string `json:"name"`
}

// LoginRequest represents the login form as submitted by the user.
type LoginRequest struct {
	Username string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the registration form as submitted by the user.
type RegisterRequest struct {
	Username  string `json:"user_id" validate:"required,username"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// StatusResponse is the envelope the backend uses for non-list replies.
type StatusResponse struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// OK reports whether the backend accepted the request.
func (r *StatusResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

// Succeeded reports success for favorite updates, which may answer with either marker.
func (r *StatusResponse) Succeeded() bool {
	return r != nil && (r.Status == StatusOK || r.Result == ResultSuccess)
}

// Session builds the session carried by a successful login reply.
func (r *StatusResponse) Session() *Session {
	return &Session{UserID: r.UserID, FullName: r.Name}
}

// validate carries the custom rules used by the request types.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic("types: register username validation: " + err.Error())
	}
	return v
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RegisterRequest using the validator.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}
