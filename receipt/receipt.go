// Package receipt renders the checkout summary as a printable PDF.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"kiosk/apperr"
	"kiosk/models"
	"kiosk/pay"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Summary is everything printed on a receipt.
type Summary struct {
	OrderID  string
	Customer string
	Currency string
	Lines    []models.CartItem
	// Hash is the gateway checkout digest. It is encoded in the QR code with the order id.
	Hash     string
	IssuedAt time.Time
}

func (s Summary) Total() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.LineTotal()
	}
	return total
}

// QRPayload is the string the receipt's QR code carries: orderId|hash.
func (s Summary) QRPayload() string {
	return fmt.Sprintf("%s|%s", s.OrderID, s.Hash)
}

// Render writes an A4 PDF of s to w.
func Render(w io.Writer, s Summary) error {
	if s.OrderID == "" || len(s.Lines) == 0 {
		return apperr.Validation(map[string]string{"cart": "There is nothing to put on a receipt."})
	}
	if s.IssuedAt.IsZero() {
		s.IssuedAt = time.Now()
	}

	qrPNG, err := qrcode.Encode(s.QRPayload(), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Order: %s", s.OrderID))
	pdf.Ln(8)
	if s.Customer != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Customer: %s", s.Customer))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", s.IssuedAt.Format("2006-01-02 15:04")))
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "B", 1, "R", false, 0, "")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 11)
	for _, l := range s.Lines {
		name := l.Snapshot.Name
		if l.Snapshot.MysteryBoxID != "" {
			name += " (mystery box)"
		}
		pdf.CellFormat(100, 8, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", l.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, pay.FormatAmount(l.Snapshot.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, pay.FormatAmount(l.LineTotal()), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 10, "Total "+s.Currency, "T", 0, "R", false, 0, "")
	pdf.CellFormat(30, 10, pay.FormatAmount(s.Total()), "T", 1, "R", false, 0, "")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
