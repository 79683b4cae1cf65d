package services

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"

	"journeyinbox/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = map[string]any{
	"paragraphs": func(body string) []string {
		var out []string
		for _, p := range strings.Split(body, "\n\n") {
			if p = strings.Trim(p, "\n"); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"lines": func(p string) []string {
		return strings.Split(p, "\n")
	},
}

var (
	promptText = texttemplate.Must(texttemplate.New("prompt.txt.tmpl").
		Funcs(templateFuncs).ParseFS(templateFS, "templates/prompt.txt.tmpl"))
	promptHTML = htmltemplate.Must(htmltemplate.New("prompt.html.tmpl").
		Funcs(templateFuncs).ParseFS(templateFS, "templates/prompt.html.tmpl"))
)

type promptView struct {
	HasEntry  bool
	EntryDate string
	Delta     string
	Body      string
}

// PromptSubject is the subject of the prompt sent on today, e.g.
// "It's Wednesday, Nov. 15, 2023. How are you?". Replies carry it back
// and the date in it decides which entry the reply becomes.
func PromptSubject(today time.Time) string {
	return fmt.Sprintf("It's %s. How are you?", longDate(today))
}

// longDate renders "Wednesday, Nov. 15, 2023".
func longDate(t time.Time) string {
	return fmt.Sprintf("%s, %s. %d, %d", t.Weekday(), t.Format("Jan"), t.Day(), t.Year())
}

// Elapsed is the humanized distance from an entry's date to today, e.g.
// "3 days ago", with any non-breaking space folded to a plain one.
func Elapsed(when, today time.Time) string {
	return norm.NFKD.String(humanize.RelTime(when, today, "ago", "from now"))
}

// RenderPrompt builds the text and HTML bodies of a prompt. entry may be nil.
func RenderPrompt(entry *models.Entry, today time.Time) (string, string, error) {
	view := promptView{}
	if entry != nil {
		when := entry.Day()
		view = promptView{
			HasEntry:  true,
			EntryDate: longDate(when),
			Delta:     Elapsed(when, today),
			Body:      entry.Body,
		}
	}

	var text, html bytes.Buffer
	if err := promptText.Execute(&text, view); err != nil {
		return "", "", fmt.Errorf("render prompt text: %w", err)
	}
	if err := promptHTML.Execute(&html, view); err != nil {
		return "", "", fmt.Errorf("render prompt html: %w", err)
	}
	return text.String(), html.String(), nil
}
