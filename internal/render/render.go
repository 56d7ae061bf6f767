// Package render composes certificate PDFs: the participant's name stamped
// onto an event template, or a plain generated certificate when the template
// is not available.
package render

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
)

// Asset locations relative to the assets root
const (
	TemplatesDir = "plantillas"
	FontPath     = "fonts/OldStandardTT-Bold.ttf"

	GeneralTemplate = "Participacion_general.pdf"
	ContestTemplate = "Constancia_mundialito.pdf"

	nameFontSize = 24
	displayFont  = "OldStandardTT"
)

// letter size in points, used when a template reports no MediaBox
const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

// Texts are the strings printed on generated certificates
type Texts struct {
	EventName   string
	PlaceDate   string
	Institution string
	ContestName string
}

// DefaultTexts matches the 2025 edition of the event
func DefaultTexts() Texts {
	return Texts{
		EventName:   "Jornada de Ingeniería Industrial 2025",
		PlaceDate:   "Cancún, Quintana Roo - Octubre 2025",
		Institution: "Universidad del Caribe",
		ContestName: "Mundialito Mexicano",
	}
}

// Renderer builds certificate documents from template assets
type Renderer struct {
	assets     fs.FS
	texts      Texts
	archiveDir string
	log        logger.Logger

	fontOnce sync.Once
	font     []byte
}

// New creates a renderer reading templates and fonts from assets
func New(assets fs.FS, texts Texts, log logger.Logger) *Renderer {
	return &Renderer{assets: assets, texts: texts, log: log}
}

// WithArchive makes Archive write rendered files into dir
func (r *Renderer) WithArchive(dir string) *Renderer {
	r.archiveDir = dir
	return r
}

// TemplateRef maps a certificate kind to its template file name.
// Workshop templates are numbered; variant defaults to 1.
func TemplateRef(kind models.CertificateKind, variant string) string {
	switch kind {
	case models.KindWorkshop:
		if _, err := strconv.Atoi(variant); err != nil {
			variant = "1"
		}
		return "W" + variant + ".pdf"
	case models.KindContest:
		return ContestTemplate
	default:
		return GeneralTemplate
	}
}

// Resolve returns the template bytes, or false when the asset is absent
func (r *Renderer) Resolve(kind models.CertificateKind, variant string) ([]byte, bool) {
	if r.assets == nil {
		return nil, false
	}
	data, err := fs.ReadFile(r.assets, path.Join(TemplatesDir, TemplateRef(kind, variant)))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Render produces the certificate for displayName. A missing template is
// not an error: a generated certificate is returned instead. Any failure
// while composing the document is reported as a render error.
func (r *Renderer) Render(kind models.CertificateKind, variant, displayName string) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Certificate rendering panicked", "kind", kind, "variant", variant, "panic", rec)
			out, err = nil, errors.Render(fmt.Errorf("%v", rec))
		}
	}()

	data, ok := r.Resolve(kind, variant)
	if !ok {
		missing := errors.TemplateMissing(TemplateRef(kind, variant))
		r.log.Warn("Using generated certificate", "kind", kind, "reason", missing.Error())
		return r.synthesize(kind, displayName)
	}
	return r.overlay(data, displayName)
}

// face is the font used for the name, with the text conversion it needs
type face struct {
	family string
	style  string
	tr     func(string) string
}

// nameFace registers the display font on pdf, falling back to the core
// Helvetica-Bold (cp1252) when the font asset is missing or unusable
func (r *Renderer) nameFace(pdf *fpdf.Fpdf) face {
	r.fontOnce.Do(func() {
		if r.assets == nil {
			return
		}
		data, err := fs.ReadFile(r.assets, FontPath)
		if err != nil {
			r.log.Warn("Display font not available, using Helvetica-Bold", "path", FontPath, "error", err)
			return
		}
		r.font = data
	})

	if len(r.font) > 0 {
		// fpdf reports unparsable font data on stdout without failing, so
		// the font only counts once SetFont accepts it
		if addFont(pdf, r.font) {
			pdf.SetFont(displayFont, "", nameFontSize)
		}
		if pdf.Ok() && pdf.GetFontDesc(displayFont, "").Ascent != 0 {
			return face{family: displayFont, tr: func(s string) string { return s }}
		}
		r.log.Warn("Display font could not be loaded, using Helvetica-Bold", "path", FontPath, "error", pdf.Error())
		pdf.ClearError()
	}
	return face{family: "Helvetica", style: "B", tr: coreText(pdf)}
}

func addFont(pdf *fpdf.Fpdf, data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	pdf.AddUTF8FontFromBytes(displayFont, "", data)
	return pdf.Ok()
}

// coreText converts s for the built-in cp1252 fonts
func coreText(pdf *fpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string { return tr(ToCP1252(s)) }
}

// letters with no canonical decomposition to a cp1252 base letter
var strokeLetters = map[rune]string{
	'Ł': "L", 'ł': "l",
	'Đ': "D", 'đ': "d",
	'Ħ': "H", 'ħ': "h",
	'Ŧ': "T", 'ŧ': "t",
	'ı': "i",
}

// ToCP1252 replaces characters the core PDF fonts cannot print. Accented
// letters lose the accent ("Č" becomes "C"), anything else becomes '?'.
func ToCP1252(s string) string {
	var b strings.Builder
	for _, c := range s {
		if inCP1252(c) {
			b.WriteRune(c)
			continue
		}
		if sub, ok := strokeLetters[c]; ok {
			b.WriteString(sub)
			continue
		}
		kept := false
		for _, d := range norm.NFD.String(string(c)) {
			if !unicode.Is(unicode.Mn, d) && inCP1252(d) {
				b.WriteRune(d)
				kept = true
			}
		}
		if !kept {
			b.WriteByte('?')
		}
	}
	return b.String()
}

func inCP1252(c rune) bool {
	_, ok := charmap.Windows1252.EncodeRune(c)
	return ok
}

func (r *Renderer) overlay(template []byte, name string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: fpdf.SizeType{Wd: letterWidth, Ht: letterHeight}})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(template))
	first := imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	if !pdf.Ok() {
		return nil, errors.Render(pdf.Error())
	}

	sizes := imp.GetPageSizes()
	pageSize := func(n int) (float64, float64) {
		box, ok := sizes[n]["/MediaBox"]
		if !ok || box["w"] <= 0 || box["h"] <= 0 {
			return letterWidth, letterHeight
		}
		return box["w"], box["h"]
	}

	f := r.nameFace(pdf)

	w, h := pageSize(1)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	imp.UseImportedTemplate(pdf, first, 0, 0, w, h)
	pdf.SetFont(f.family, f.style, nameFontSize)
	text := f.tr(name)
	pdf.Text((w-pdf.GetStringWidth(text))/2, h/2, text)

	for n := 2; n <= len(sizes); n++ {
		tpl := imp.ImportPageFromStream(pdf, &rs, n, "/MediaBox")
		w, h := pageSize(n)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	}

	return output(pdf)
}

func (r *Renderer) synthesize(kind models.CertificateKind, name string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", SizeStr: "A4"})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle("Constancia", true)
	pdf.SetCreator("certify", true)

	f := r.nameFace(pdf)
	tr := coreText(pdf)
	pdf.AddPage()
	_, height := pdf.GetPageSize()

	centered := func(family, style string, size, y float64, conv func(string) string, s string) {
		pdf.SetFont(family, style, size)
		s = conv(s)
		w, _ := pdf.GetPageSize()
		pdf.Text((w-pdf.GetStringWidth(s))/2, y, s)
	}

	centered("Helvetica", "B", 28, 100, tr, "CONSTANCIA")
	centered("Helvetica", "", 16, 150, tr, r.texts.EventName)
	centered("Helvetica", "", 14, 250, tr, "Se otorga la presente constancia a:")
	centered(f.family, f.style, nameFontSize, 300, f.tr, name)
	centered("Helvetica", "", 12, 380, tr, r.description(kind))
	centered("Helvetica", "", 12, 450, tr, r.texts.PlaceDate)
	centered("Helvetica", "", 10, height-50, tr, r.texts.Institution)

	return output(pdf)
}

func (r *Renderer) description(kind models.CertificateKind) string {
	switch kind {
	case models.KindWorkshop:
		return "Por su participación en el Workshop de la " + r.texts.EventName
	case models.KindContest:
		return "Por su participación en el " + r.texts.ContestName + " - " + r.texts.EventName
	default:
		return "Por su destacada participación en la " + r.texts.EventName
	}
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Render(err)
	}
	return buf.Bytes(), nil
}

// Archive writes a rendered certificate into the archive directory, if one
// is configured. Failures are logged and otherwise ignored.
func (r *Renderer) Archive(filename string, data []byte) {
	if r.archiveDir == "" {
		return
	}
	if err := os.MkdirAll(r.archiveDir, 0o755); err != nil {
		r.log.Warn("Could not create archive directory", "dir", r.archiveDir, "error", err)
		return
	}
	target := filepath.Join(r.archiveDir, filepath.Base(filename))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		r.log.Warn("Could not archive certificate", "path", target, "error", err)
		return
	}
	r.log.Debug("Archived certificate", "path", target)
}
