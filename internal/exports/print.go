package exports

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"resumemind-api/internal/builders"
)

//go:embed templates/*.html
var templateFS embed.FS

var printTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// WatermarkText is drawn diagonally across watermarked exports.
const WatermarkText = "ResumeMind"

type printData struct {
	Template      string
	Resume        builders.Resume
	Watermark     bool
	WatermarkText string
}

// RenderHTML writes the print page for b.
func RenderHTML(w io.Writer, b builders.Builder, watermark bool) error {
	name := b.Template
	if !builders.ValidTemplate(name) {
		name = builders.TemplateClassic
	}
	var buf bytes.Buffer
	err := printTemplates.ExecuteTemplate(&buf, name, printData{
		Template:      name,
		Resume:        b.Resume,
		Watermark:     watermark,
		WatermarkText: WatermarkText,
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
