package invoice

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberFormat(t *testing.T) {
	at := time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, "INV-20240105-12", Number(12, at))
}

func TestNumberUsesUTCDate(t *testing.T) {
	// 23:30 in UTC+7 is already the next day locally; the number must
	// come from the UTC date
	jakarta := time.FixedZone("WIB", 7*3600)
	at := time.Date(2024, 1, 6, 1, 30, 0, 0, jakarta)
	assert.Equal(t, "INV-20240105-99", Number(99, at))
}

func TestTextRendererWritesFile(t *testing.T) {
	dir := t.TempDir()
	r := TextRenderer{Dir: dir}

	name, err := r.Render(Data{
		Number:     "INV-20240105-12",
		IssuedAt:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		RenterName: "Budi",
		KosName:    "Kos Melati",
		KosAddress: "Jl. Melati 1",
		RoomNumber: "A1",
		StartDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Total:      930000,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("invoices", "invoice-INV-20240105-12.txt"), name)

	body, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(body), "INV-20240105-12")
	assert.Contains(t, string(body), "Kos Melati")
	assert.Contains(t, string(body), "Rp 930000")
}
