package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"userauth/internal/models"
)

// Generator renders account reports. Interface kept small so handlers
// can mock it in tests.
type Generator interface {
	GenerateUsersReport(users []*models.User) (string, error)
}

type ReportGenerator struct {
	RootDir string // storage root, e.g. "./public"
}

func NewReportGenerator(rootDir string) *ReportGenerator {
	return &ReportGenerator{RootDir: filepath.Clean(rootDir)}
}

// GenerateUsersReport writes a one-page-per-40-rows account listing and
// returns the absolute path of the generated file.
func (g *ReportGenerator) GenerateUsersReport(users []*models.User) (string, error) {
	filename := fmt.Sprintf("users_report_%s.pdf", time.Now().Format("20060102_150405"))
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Accounts Report", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Accounts Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d accounts", time.Now().Format("2006-01-02 15:04"), len(users)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.headerRow(pdf)
	pdf.SetFont("Helvetica", "", 9)
	for _, u := range users {
		registered := u.CreatedAt.Format("2006-01-02")
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", u.ID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, u.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, u.Email, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, u.Role, "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, registered, "1", 1, "C", false, 0, "")
		if pdf.GetY() > 260 {
			pdf.AddPage()
			g.headerRow(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func (g *ReportGenerator) headerRow(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(12, 7, "ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 7, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 7, "Email", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 7, "Role", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 7, "Registered", "1", 1, "C", false, 0, "")
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // no path traversal
	return filepath.Join(g.RootDir, filename), nil
}
