package language

import "strings"

// Code is a two-letter language code understood by the translation providers.
type Code string

const (
	English Code = "en"
	Telugu  Code = "te"
	Hindi   Code = "hi"
)

// Option pairs a selectable display name with its code.
type Option struct {
	Name string `json:"name"`
	Code Code   `json:"code"`
}

var options = []Option{
	{Name: "English", Code: English},
	{Name: "Telugu", Code: Telugu},
	{Name: "Hindi", Code: Hindi},
}

// Options returns the selectable languages in display order.
func Options() []Option {
	return append([]Option(nil), options...)
}

// Parse accepts either a code ("hi") or a display name ("Hindi"), case-insensitively.
// An empty value selects English.
func Parse(raw string) (Code, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return English, true
	}
	for _, opt := range options {
		if strings.EqualFold(value, string(opt.Code)) || strings.EqualFold(value, opt.Name) {
			return opt.Code, true
		}
	}
	return "", false
}

// Name returns the display name of c, or the code itself when unknown.
func (c Code) Name() string {
	for _, opt := range options {
		if opt.Code == c {
			return opt.Name
		}
	}
	return string(c)
}

func (c Code) IsEnglish() bool {
	return c == English
}
