// Package invoice assigns invoice numbers and renders invoice documents
// for confirmed bookings.
package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Number formats an invoice number from the confirmation time and the
// booking id, e.g. INV-20240105-12.
func Number(bookingID uint64, at time.Time) string {
	return fmt.Sprintf("INV-%s-%d", at.UTC().Format("20060102"), bookingID)
}

// Data carries everything a rendered invoice shows.
type Data struct {
	Number     string
	IssuedAt   time.Time
	RenterName string
	KosName    string
	KosAddress string
	RoomNumber string
	StartDate  time.Time
	EndDate    time.Time
	Total      int64
}

// Renderer turns invoice data into a stored document and returns the
// filename relative to the public directory.
type Renderer interface {
	Render(d Data) (string, error)
}

// TextRenderer writes plain-text invoices under dir/invoices.
type TextRenderer struct {
	Dir string // public root, documents go to Dir/invoices
}

func (r TextRenderer) Render(d Data) (string, error) {
	out := filepath.Join(r.Dir, "invoices")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("invoice-%s.txt", d.Number)

	body := fmt.Sprintf(`INVOICE %s
Issued:   %s

Renter:   %s
Kos:      %s
Address:  %s
Room:     %s
Period:   %s - %s

Total:    Rp %d
`,
		d.Number,
		d.IssuedAt.UTC().Format("2006-01-02"),
		d.RenterName,
		d.KosName,
		d.KosAddress,
		d.RoomNumber,
		d.StartDate.Format("2006-01-02"),
		d.EndDate.Format("2006-01-02"),
		d.Total,
	)
	if err := os.WriteFile(filepath.Join(out, name), []byte(body), 0o644); err != nil {
		return "", err
	}
	return filepath.Join("invoices", name), nil
}
