package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
)

// StubLabel is what Stub reports for every image.
const StubLabel = "fever"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Image is an uploaded picture.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Classifier turns an image into a single condition label the matcher understands.
type Classifier interface {
	Classify(ctx context.Context, img Image) (string, error)
}

// Stub is a placeholder classifier that ignores the image.
type Stub struct{}

func (Stub) Classify(context.Context, Image) (string, error) {
	return StubLabel, nil
}

// Validate checks the extension and that the bytes decode as a jpeg or png header.
// The detected format is stored in ContentType.
func Validate(img *Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedFormat
	}
	if len(img.Data) == 0 {
		return ErrInvalidImage
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img.ContentType = "image/" + format
	return nil
}
