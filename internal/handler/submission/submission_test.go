package submission

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	"github.com/zhouzirui/health-assistant/backend/internal/service/vision"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" || data != nil {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write(data)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/ask", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestFromMultipart(t *testing.T) {
	req := multipartRequest(t, map[string]string{"language": "Hindi", "text": "मुझे बुखार है"}, "rash.png", pngBytes(t))

	sub, err := FromMultipart(httptest.NewRecorder(), req, "s1", 1<<20)
	if err != nil {
		t.Fatalf("FromMultipart err: %v", err)
	}
	if sub.SessionID != "s1" || sub.Language != language.Hindi || sub.Text != "मुझे बुखार है" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.Image == nil || sub.Image.ContentType != "image/png" {
		t.Fatalf("expected validated png, got %+v", sub.Image)
	}
}

func TestFromMultipartWithoutImage(t *testing.T) {
	req := multipartRequest(t, map[string]string{"text": "fever"}, "", []byte{})

	sub, err := FromMultipart(httptest.NewRecorder(), req, "s1", 1<<20)
	if err != nil {
		t.Fatalf("FromMultipart err: %v", err)
	}
	if sub.Image != nil {
		t.Fatal("empty file part must count as no image")
	}
	if sub.Language != language.English {
		t.Fatalf("expected English default, got %q", sub.Language)
	}
}

func TestFromMultipartErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		maxBytes int64
		want     error
		status   int
	}{
		{
			name:     "unknown language",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, map[string]string{"language": "klingon"}, "", nil) },
			maxBytes: 1 << 20,
			want:     assistant.ErrUnknownLanguage,
			status:   http.StatusBadRequest,
		},
		{
			name:     "gif upload",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, nil, "anim.gif", []byte("GIF89a")) },
			maxBytes: 1 << 20,
			want:     vision.ErrUnsupportedFormat,
			status:   http.StatusBadRequest,
		},
		{
			name:     "oversized body",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, nil, "big.png", bytes.Repeat([]byte{1}, 4096)) },
			maxBytes: 512,
			want:     vision.ErrImageTooLarge,
			status:   http.StatusRequestEntityTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromMultipart(httptest.NewRecorder(), tc.req(t), "s1", tc.maxBytes)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if response.StatusOf(err) != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, response.StatusOf(err))
			}
		})
	}
}

func TestFromJSON(t *testing.T) {
	body := `{"language":"te","text":"fever","image":{"filename":"x.png","data":"` + base64.StdEncoding.EncodeToString(pngBytes(t)) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))

	sub, err := FromJSON(httptest.NewRecorder(), req, "s1", 1<<20)
	if err != nil {
		t.Fatalf("FromJSON err: %v", err)
	}
	if sub.Language != language.Telugu || sub.Image == nil {
		t.Fatalf("unexpected submission %+v", sub)
	}
}

func TestBuildAcceptsLongText(t *testing.T) {
	text := strings.Repeat("fever ", 400)

	sub, err := Build("s1", Payload{Text: text}, 1<<20)
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if sub.Text != text {
		t.Fatalf("text must pass through unchanged, got %d bytes", len(sub.Text))
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{"image without filename", Payload{Image: &ImagePayload{Data: "aGVsbG8="}}},
		{"image not base64", Payload{Image: &ImagePayload{Filename: "x.png", Data: "***"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build("s1", tc.payload, 1<<20)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if response.StatusOf(err) != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%v)", response.StatusOf(err), err)
			}
		})
	}
}
