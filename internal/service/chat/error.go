package chat

import (
	"net/http"

	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

var (
	ErrSessionNotFound = response.NewError(http.StatusNotFound, "session not found")
	ErrInvalidTurn     = response.NewError(http.StatusBadRequest, "turn must have a session id and a known role")
)
