package assistant

import (
	"net/http"

	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

var (
	ErrEmptySubmission = response.NewError(http.StatusBadRequest, "type a question or upload an image")
	ErrUnknownLanguage = response.NewError(http.StatusBadRequest, "unsupported language, choose English, Telugu or Hindi")
)
