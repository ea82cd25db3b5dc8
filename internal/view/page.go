package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Page is the data behind the chat page.
type Page struct {
	Languages []language.Option
	Selected  language.Code
	Bubbles   []Bubble
	Error     string
}

func RenderPage(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}
