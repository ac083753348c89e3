package gateway

import (
	"encoding/json"

	"github.com/jrsteele09/paramed-portal/users"
)

// Remote API endpoints, relative to the configured base URL
const (
	PathLogin  = "/auth/login"
	PathLogout = "/auth/logout"
	PathMe     = "/auth/me"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginData struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// DataEnvelope is the success shape of every API response: {"data": ...}
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ErrorEnvelope is the error shape: {"error": {"message": ...}}
type ErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decodeErrorMessage accepts the documented error envelope and the flat
// {"message": ...} form some endpoints return.
func decodeErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	var flat struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat.Message
	}
	return ""
}
