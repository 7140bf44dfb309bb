package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/records-ingest/internal/common"
)

func workbookBytes(t *testing.T, rows map[string][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for cell, values := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeWorkbookKeepsRawValues(t *testing.T) {
	data := workbookBytes(t, map[string][]any{
		"A1": {"PROGRAM: BSIT"},
		"A3": {"IT101", "Intro to Programming", "Lec", 3, "MWF", 0.3333, 0.375, "Rm 101"},
	})

	doc, err := Decode("cor.xlsx", data)
	require.NoError(t, err)
	require.Len(t, doc.Sheets, 1)

	g, ok := doc.Primary()
	require.True(t, ok)
	assert.Equal(t, "PROGRAM: BSIT", g.Cell(0, 0))
	assert.Equal(t, "", g.Cell(1, 0), "blank row reads empty")
	assert.Equal(t, "0.3333", g.Cell(2, 5))
	assert.Equal(t, "Rm 101", g.Cell(2, 7))
	assert.Equal(t, "", g.Cell(2, 40), "out of range reads empty")
	assert.Equal(t, 8, g.NonEmpty(2))
}

func TestDecodeCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfSTUDENT ID,NAME\n2021-0001,\"Dela Cruz, Juan\"\n")
	doc, err := Decode("roster.CSV", data)
	require.NoError(t, err)

	g, ok := doc.Primary()
	require.True(t, ok)
	assert.Equal(t, "STUDENT ID", g.Cell(0, 0))
	assert.Equal(t, "Dela Cruz, Juan", g.Cell(1, 1))
}

func TestDecodeText(t *testing.T) {
	doc, err := Decode("about.txt", []byte("MISSION\r\nTo educate.\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "MISSION\nTo educate.\n", doc.FlatText())
	assert.Equal(t, "To educate.", doc.Sheets[0].Grid.Cell(1, 0))
}

func TestDecodeErrors(t *testing.T) {
	t.Run("bad workbook bytes", func(t *testing.T) {
		_, err := Decode("cor.xlsx", []byte("not a zip"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDecode))

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "xlsx", de.Format)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Decode("cor.pdf", []byte("%PDF"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDecode))
	})
}

func TestFlatTextFromSheets(t *testing.T) {
	doc := &Document{Sheets: []Sheet{{Name: "s", Grid: RawGrid{
		{"VISION", ""},
		{"", ""},
		{"A leading", "university"},
	}}}}
	assert.Equal(t, "VISION\nA leading university\n", doc.FlatText())

	empty := &Document{Sheets: []Sheet{{Name: "s", Grid: RawGrid{{"", " "}}}}}
	_, ok := empty.Primary()
	assert.False(t, ok)
}
