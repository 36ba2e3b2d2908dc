package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest holds the credentials sent to /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validateQuery(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Username,
				validation.Required,
				validation.Length(1, 100),
			),
			validation.Field(
				&r.Password,
				validation.Required,
			),
		)
	}, "invalid login request")
}

// UserID accepts numeric or string identifiers
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = ""
	case string:
		*id = UserID(v)
	case float64:
		*id = UserID(fmt.Sprintf("%.0f", v))
	default:
		return fmt.Errorf("unsupported user id %v", raw)
	}
	return nil
}

// LoginResponse is the result of a successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   UserID `json:"user_id"`
	Role     string `json:"role,omitempty"`
}

// RegisterRequest holds the fields sent to /auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validateQuery(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Username,
				validation.Required,
				validation.Length(3, 50),
			),
			validation.Field(
				&r.Password,
				validation.Required,
				validation.Length(6, 100),
			),
			validation.Field(
				&r.Email,
				validation.Required,
				is.Email,
			),
		)
	}, "invalid registration request")
}

// RegisterResponse is the result of a successful registration
type RegisterResponse struct {
	Message string `json:"msg"`
	UserID  UserID `json:"user_id"`
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &LoginResponse{}
	if err := c.Post(WithCredentialExchange(ctx), "/auth/login", req, out); err != nil {
		return nil, err
	}

	if out.Token == "" {
		return nil, newAPIError(KindServer, http.StatusBadGateway, "login response carries no token", map[string]any{
			"path": "/auth/login",
		})
	}
	return out, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &RegisterResponse{}
	if err := c.Post(WithCredentialExchange(ctx), "/auth/register", req, out); err != nil {
		return nil, err
	}
	return out, nil
}
