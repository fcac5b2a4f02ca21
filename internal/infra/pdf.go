package infra

// pdf.go — closing report generation using go-pdf/fpdf.
// Produces an A4 summary of a closed cash session: opening float, expected
// vs counted per tender, difference, movements and closing notes. The output
// file is saved to storagePath/fechamento_{sessionID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"saborpos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Row labels in the same order as the expected/counted column slices below.
var tenderLabels = []string{"Dinheiro", "Pix", "Débito", "Crédito"}

// GenerateClosingReportPDF renders the closing report for a session that has
// left the open state. storagePath is created if needed. Returns the absolute
// path of the generated file.
func GenerateClosingReportPDF(sess *model.CashSession, est *model.Establishment, movements []model.CashMovement, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("fechamento_%s.pdf", sess.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, est.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Relatório de Fechamento de Caixa", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Session info ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sessão: %s", sess.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Abertura: "+sess.OpenedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if sess.ClosedAt != nil {
		pdf.CellFormat(contentW, 5, "Fechamento: "+sess.ClosedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, "Status: "+sess.Status, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Tender table ──────────────────────────────────────────────────────────
	col1 := contentW * 0.40
	col2 := contentW * 0.30
	col3 := contentW * 0.30

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Forma de pagamento", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Esperado", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 6, "Contado", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	expected := []*decimal.Decimal{sess.ExpectedCash, sess.ExpectedPix, sess.ExpectedDebit, sess.ExpectedCredit}
	counted := []*decimal.Decimal{sess.CountedCash, sess.CountedPix, sess.CountedDebit, sess.CountedCredit}
	for i, label := range tenderLabels {
		pdf.CellFormat(col1, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, money(expected[i]), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, money(counted[i]), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1, 7, "Fundo de troco:", "T", 0, "L", false, 0, "")
	pdf.CellFormat(col2+col3, 7, "R$ "+sess.OpeningFloat.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.CellFormat(col1, 7, "Diferença:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2+col3, 7, money(sess.Difference), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	// ── Movements ─────────────────────────────────────────────────────────────
	if len(movements) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 6, "Movimentações", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, mv := range movements {
			label := "Suprimento"
			sign := "+"
			if mv.Kind == model.MovementWithdrawal {
				label = "Sangria"
				sign = "-"
			}
			desc := ""
			if mv.Description != nil {
				desc = " — " + *mv.Description
			}
			pdf.CellFormat(col1+col2, 5, mv.CreatedAt.Format("15:04")+"  "+label+desc, "", 0, "L", false, 0, "")
			pdf.CellFormat(col3, 5, sign+"R$ "+mv.Amount.StringFixed(2), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	// ── Notes ─────────────────────────────────────────────────────────────────
	if sess.ClosingNote != nil && *sess.ClosingNote != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 6, "Observação de fechamento", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(contentW, 5, *sess.ClosingNote, "", "L", false)
		pdf.Ln(2)
	}
	if sess.ValidationNote != nil && *sess.ValidationNote != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 6, "Observação de validação", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(contentW, 5, *sess.ValidationNote, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return "R$ " + d.StringFixed(2)
}
