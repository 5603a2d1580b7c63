// Package report renders scan results for humans.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

const disclaimer = "DISCLAIMER: This report is generated automatically from passive, unauthenticated " +
	"checks. It is not a substitute for a full penetration test."

// Options controls report rendering.
type Options struct {
	Brand string           // header band title, defaults to constants.DefaultBrand
	Now   func() time.Time // generation time, defaults to time.Now
}

func (o Options) brand() string {
	if strings.TrimSpace(o.Brand) == "" {
		return constants.DefaultBrand
	}
	return o.Brand
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Reference returns the document reference printed in the header, e.g. AUDIT-20260301.
func Reference(t time.Time) string {
	return "AUDIT-" + t.Format("20060102")
}

type rgb struct{ r, g, b int }

type ratingStyle struct {
	background rgb
	text       rgb
}

var ratingStyles = map[checker.Rating]ratingStyle{
	checker.RatingExcellent: {background: rgb{220, 252, 231}, text: rgb{21, 128, 61}},
	checker.RatingAverage:   {background: rgb{254, 249, 195}, text: rgb{161, 98, 7}},
	checker.RatingCritical:  {background: rgb{254, 226, 226}, text: rgb{185, 28, 28}},
}

var (
	colorInk    = rgb{17, 24, 39}
	colorMuted  = rgb{107, 114, 128}
	colorBody   = rgb{55, 65, 81}
	colorAccent = rgb{55, 88, 249}
	colorOK     = rgb{21, 128, 61}
	colorWarn   = rgb{185, 28, 28}
	colorRule   = rgb{229, 231, 235}
)

// RenderPDF builds the single-page audit report for one scan.
func RenderPDF(result checker.ScanResult, opts Options) ([]byte, error) {
	generated := opts.now()
	rating := result.Rating
	if rating == "" {
		rating = checker.RatingFor(result.Score)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generated)
	pdf.SetTitle(fmt.Sprintf("Security audit: %s", result.Domain), false)
	pdf.SetAuthor(opts.brand(), false)
	pdf.SetAutoPageBreak(true, 35)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(colorInk.r, colorInk.g, colorInk.b)
		pdf.Rect(0, 0, 210, 40, "F")

		pdf.SetY(15)
		pdf.SetX(10)
		pdf.SetFont("Arial", "B", 24)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(120, 10, opts.brand(), "", 0, "", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(156, 163, 175)
		pdf.SetX(-70)
		pdf.CellFormat(60, 10, "Ref: "+Reference(generated), "", 0, "R", false, 0, "")
		pdf.SetY(50)
	})

	pdf.SetFooterFunc(func() {
		pdf.SetY(-30)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
		pdf.MultiCell(0, 4, disclaimer, "", "C", false)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(colorInk.r, colorInk.g, colorInk.b)
	pdf.CellFormat(0, 10, fmt.Sprintf("Security Audit Report: %s", result.Domain), "", 1, "", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
	pdf.CellFormat(0, 8, "Generated on "+generated.Format("02/01/2006 at 15:04"), "", 1, "", false, 0, "")
	if !result.ScannedAt.IsZero() {
		pdf.CellFormat(0, 6, "Scanned at "+result.ScannedAt.UTC().Format(time.RFC3339), "", 1, "", false, 0, "")
	}
	pdf.Ln(8)

	drawScoreBox(pdf, result.Score, rating)

	// Technical analysis
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(colorInk.r, colorInk.g, colorInk.b)
	pdf.CellFormat(0, 10, "Technical Analysis", "", 1, "", false, 0, "")
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(5)

	for _, f := range checker.Findings(result) {
		drawFinding(pdf, f)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrReportFailed, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrReportFailed, err)
	}
	return buf.Bytes(), nil
}

func drawScoreBox(pdf *gofpdf.Fpdf, score int, rating checker.Rating) {
	style, ok := ratingStyles[rating]
	if !ok {
		style = ratingStyles[checker.RatingCritical]
	}

	top := pdf.GetY()
	pdf.SetFillColor(style.background.r, style.background.g, style.background.b)
	pdf.Rect(10, top, 190, 35, "F")
	pdf.SetY(top + 3)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, "SECURITY SCORE", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 26)
	pdf.SetTextColor(style.text.r, style.text.g, style.text.b)
	pdf.CellFormat(0, 12, fmt.Sprintf("%d / 100", score), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 8, strings.ToUpper(string(rating)), "", 1, "C", false, 0, "")

	pdf.SetY(top + 35 + 10)
}

func drawFinding(pdf *gofpdf.Fpdf, f checker.Finding) {
	if pdf.GetY() > 240 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorInk.r, colorInk.g, colorInk.b)
	pdf.CellFormat(120, 8, f.Check, "", 0, "", false, 0, "")

	if f.Status == checker.StatusOK {
		pdf.SetTextColor(colorOK.r, colorOK.g, colorOK.b)
	} else {
		pdf.SetTextColor(colorWarn.r, colorWarn.g, colorWarn.b)
	}
	pdf.CellFormat(0, 8, string(f.Status), "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
	pdf.CellFormat(0, 6, "Result: "+f.Detail, "", 1, "", false, 0, "")

	if f.Recommendation != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.SetTextColor(colorAccent.r, colorAccent.g, colorAccent.b)
		pdf.MultiCell(0, 5, "Recommendation: "+f.Recommendation, "", "", false)
	}

	pdf.Ln(2)
	pdf.SetDrawColor(243, 244, 246)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)
}
