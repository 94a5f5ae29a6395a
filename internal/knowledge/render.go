package knowledge

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)

	// Raw HTML in explainers is dropped: goldmark omits it unless told
	// otherwise.
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
)

// Paragraphs splits explainer text on blank lines, dropping empty chunks.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, chunk := range paragraphBreak.Split(text, -1) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

// RenderExplainer converts explainer text to HTML, one markdown block per
// paragraph.
func RenderExplainer(text string) (string, error) {
	var buf bytes.Buffer
	for _, p := range Paragraphs(text) {
		if err := md.Convert([]byte(p), &buf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
