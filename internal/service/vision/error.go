package vision

import (
	"net/http"

	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

var (
	ErrUnsupportedFormat = response.NewError(http.StatusBadRequest, "unsupported image format, use jpg, jpeg or png")
	ErrInvalidImage      = response.NewError(http.StatusBadRequest, "invalid image file")
	ErrImageTooLarge     = response.NewError(http.StatusRequestEntityTooLarge, "image file too large")
)
