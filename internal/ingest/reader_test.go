package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTable_CSV(t *testing.T) {
	csv := strings.Join([]string{
		`Platform,Category,Commission Rate,Valid From`,
		`amazon,apparel,12,2025-01-01`,
		`,,,`,
		`flipkart,"electronics, large",8,2025-02-01`,
	}, "\n")

	rows, err := ReadTable(strings.NewReader(csv), "cards.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank records are skipped")

	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, "amazon", rows[0].Cells["Platform"])
	// Quoted field with an embedded comma survives.
	assert.Equal(t, "electronics, large", rows[1].Cells["Category"])
	assert.Equal(t, 3, rows[1].Number, "row numbers count data rows, blanks included")
}

func TestReadTable_DoubledQuoteEscaping(t *testing.T) {
	csv := "Platform,Category\namazon,\"says \"\"large\"\" appliances\"\n"

	rows, err := ReadTable(strings.NewReader(csv), "cards.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `says "large" appliances`, rows[0].Cells["Category"])
}

func TestReadTable_ShortRecordsPadEmpty(t *testing.T) {
	csv := "Platform,Category,Commission\namazon,apparel\n"

	rows, err := ReadTable(strings.NewReader(csv), "cards.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Cells["Commission"])
}

func writeWorkbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadTable_XLSX(t *testing.T) {
	buf := writeWorkbook(t,
		[]any{"Platform", "Category", "Commission Rate", "Valid From"},
		[]any{"amazon", "apparel", 12, "2025-01-01"},
		[]any{"flipkart", "electronics"},
	)

	rows, err := ReadTable(buf, "cards.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, "amazon", rows[0].Cells["Platform"])
	assert.Equal(t, "12", rows[0].Cells["Commission Rate"], "numeric cells come back as text")
	assert.Equal(t, "2025-01-01", rows[0].Cells["Valid From"])

	// Sheet rows stop at their last populated cell; the missing trailing
	// cells pad empty like short CSV records.
	assert.Equal(t, 2, rows[1].Number)
	assert.Equal(t, "flipkart", rows[1].Cells["Platform"])
	assert.Equal(t, "", rows[1].Cells["Commission Rate"])
	assert.Equal(t, "", rows[1].Cells["Valid From"])
}

func TestReadTable_XLSXNoHeader(t *testing.T) {
	buf := writeWorkbook(t)

	_, err := ReadTable(buf, "cards.xlsx")
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadTable_NoHeader(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), "cards.csv")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadTable(strings.NewReader(" , , \n"), "cards.csv")
	assert.ErrorIs(t, err, ErrNoHeader)
}
