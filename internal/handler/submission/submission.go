package submission

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	"github.com/zhouzirui/health-assistant/backend/internal/service/vision"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

var validate = validator.New()

// Payload is the JSON form of a submission, shared by the REST and WebSocket surfaces.
type Payload struct {
	Language string        `json:"language"`
	Text     string        `json:"text"`
	Image    *ImagePayload `json:"image,omitempty"`
}

// ImagePayload carries an image as standard base64.
type ImagePayload struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Data     string `json:"data" validate:"required,base64"`
}

// FromJSON decodes a Payload body limited to maxBytes.
func FromJSON(w http.ResponseWriter, r *http.Request, sessionID string, maxBytes int64) (assistant.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var payload Payload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return assistant.Submission{}, vision.ErrImageTooLarge
		}
		return assistant.Submission{}, response.NewError(http.StatusBadRequest, "invalid request body")
	}
	return Build(sessionID, payload, maxBytes)
}

// Build validates payload and turns it into a submission for sessionID.
func Build(sessionID string, payload Payload, maxBytes int64) (assistant.Submission, error) {
	if err := validate.Struct(payload); err != nil {
		return assistant.Submission{}, validationError(err)
	}

	lang, ok := language.Parse(payload.Language)
	if !ok {
		return assistant.Submission{}, assistant.ErrUnknownLanguage
	}

	sub := assistant.Submission{
		SessionID: sessionID,
		Language:  lang,
		Text:      payload.Text,
	}

	if payload.Image != nil {
		data, err := base64.StdEncoding.DecodeString(payload.Image.Data)
		if err != nil {
			return assistant.Submission{}, vision.ErrInvalidImage
		}
		img := vision.Image{Filename: payload.Image.Filename, Data: data}
		if err := checkImage(&img, maxBytes); err != nil {
			return assistant.Submission{}, err
		}
		sub.Image = &img
	}

	return sub, nil
}

// FromMultipart reads the language, text and image fields of a form post.
// An empty file part counts as no image.
func FromMultipart(w http.ResponseWriter, r *http.Request, sessionID string, maxBytes int64) (assistant.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return assistant.Submission{}, vision.ErrImageTooLarge
		}
		return assistant.Submission{}, response.NewError(http.StatusBadRequest, "invalid form data")
	}

	payload := Payload{
		Language: r.FormValue("language"),
		Text:     r.FormValue("text"),
	}
	if err := validate.Struct(payload); err != nil {
		return assistant.Submission{}, validationError(err)
	}

	lang, ok := language.Parse(payload.Language)
	if !ok {
		return assistant.Submission{}, assistant.ErrUnknownLanguage
	}

	sub := assistant.Submission{
		SessionID: sessionID,
		Language:  lang,
		Text:      payload.Text,
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return sub, nil
	case err != nil:
		return assistant.Submission{}, response.NewError(http.StatusBadRequest, "invalid image upload")
	}
	defer file.Close()

	if header.Filename == "" || header.Size == 0 {
		return sub, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return assistant.Submission{}, fmt.Errorf("read upload: %w", err)
	}

	img := vision.Image{Filename: header.Filename, Data: data}
	if err := checkImage(&img, maxBytes); err != nil {
		return assistant.Submission{}, err
	}
	sub.Image = &img
	return sub, nil
}

func checkImage(img *vision.Image, maxBytes int64) error {
	if maxBytes > 0 && int64(len(img.Data)) > maxBytes {
		return vision.ErrImageTooLarge
	}
	return vision.Validate(img)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return response.NewError(http.StatusBadRequest, err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return response.NewError(http.StatusBadRequest, "invalid fields: "+strings.Join(fields, ", "))
}
