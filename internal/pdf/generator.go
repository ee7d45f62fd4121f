package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/schedule"
)

const fontName = "Helvetica"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

type writer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("ContratPro", true)
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	w.header(doc)
	w.parties(doc.Client, doc.Provider)
	for _, article := range doc.Articles {
		w.article(article)
	}
	if len(doc.Schedule) > 1 {
		w.scheduleTable(doc)
	}
	w.signatures()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *writer) header(doc model.ContractDocument) {
	pdf := w.pdf
	fill := false
	if r, g, b, ok := parseHex(doc.Accent()); ok {
		pdf.SetFillColor(r, g, b)
		fill = true
	}

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 14, w.tr(doc.Title), "", 1, "C", fill, 0, "")
	if doc.Subtype != "" {
		pdf.SetFont(fontName, "I", 10)
		pdf.CellFormat(0, 6, w.tr(doc.Subtype), "", 1, "C", fill, 0, "")
	}
	pdf.SetFont(fontName, "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, w.tr(fmt.Sprintf("Contrat établi le %s", formatDate(doc.IssuedOn))), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
}

func (w *writer) parties(client, provider model.Party) {
	pdf := w.pdf
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(0, 6, w.tr("ENTRE LES SOUSSIGNÉS :"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - left - right) / 2
	top := pdf.GetY()

	w.partyBlock(left, top, colWidth, "LE CLIENT", client)
	leftBottom := pdf.GetY()
	w.partyBlock(left+colWidth, top, colWidth, "LE PRESTATAIRE", provider)
	if leftBottom > pdf.GetY() {
		pdf.SetY(leftBottom)
	}
	pdf.Ln(6)
}

func (w *writer) partyBlock(x, y, width float64, title string, party model.Party) {
	pdf := w.pdf
	pdf.SetXY(x, y)
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(width, 6, w.tr(title), "", 2, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	for _, line := range []string{party.Name, party.Address, party.Phone} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.SetX(x)
		pdf.MultiCell(width-4, 5, w.tr(line), "", "L", false)
	}
}

func (w *writer) article(article model.Article) {
	pdf := w.pdf
	pdf.SetFont(fontName, "B", 10)
	heading := fmt.Sprintf("ARTICLE %d - %s", article.Number, strings.ToUpper(article.Title))
	pdf.CellFormat(0, 7, w.tr(heading), "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 5, w.tr(safeValue(article.Body)), "", "J", false)
	pdf.Ln(3)
}

func (w *writer) scheduleTable(doc model.ContractDocument) {
	pdf := w.pdf
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(0, 7, w.tr("ÉCHÉANCIER"), "", 1, "L", false, 0, "")

	colWidths := []float64{15, 30, 50, 75}
	w.tableRow([]string{"N°", "Pourcentage", fmt.Sprintf("Montant (%s)", doc.Currency.Symbol), "Échéance"}, colWidths, true)
	for _, line := range doc.Schedule {
		w.tableRow(scheduleCells(line), colWidths, false)
	}
	pdf.Ln(4)
}

func scheduleCells(line model.ScheduleLine) []string {
	return []string{
		strconv.Itoa(line.Index),
		schedule.FormatPercent(line.Percent) + " %",
		schedule.Format(line.Amount),
		line.Due,
	}
}

func (w *writer) tableRow(cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	w.pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i == 1 || i == 2 {
			align = "R"
		}
		w.pdf.CellFormat(widths[i], 7, w.tr(col), "1", 0, align, false, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *writer) signatures() {
	pdf := w.pdf
	pdf.Ln(6)
	pdf.SetFont(fontName, "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.MultiCell(0, 5, w.tr("Fait en deux exemplaires originaux, à ____________, le ____________"), "", "L", false)
	pdf.Ln(8)

	half := 85.0
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(half, 6, w.tr("Pour le client"), "", 0, "C", false, 0, "")
	pdf.CellFormat(half, 6, w.tr("Pour le prestataire"), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "I", 8)
	mention := w.tr(`Signature précédée de la mention "Lu et approuvé"`)
	pdf.CellFormat(half, 5, mention, "", 0, "C", false, 0, "")
	pdf.CellFormat(half, 5, mention, "", 1, "C", false, 0, "")
}

// parseHex reads a "#RRGGBB" colour.
func parseHex(value string) (int, int, int, bool) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006")
}
