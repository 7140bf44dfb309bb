package grid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// DecodeError reports bytes that do not match the format implied by the filename.
type DecodeError struct {
	Filename string
	Format   string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q as %s: %v", e.Filename, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, common.ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == common.ErrDecode
}

var errUnsupported = errors.New("unsupported extension")

// Decode turns uploaded bytes into a Document, choosing the decoder by extension.
func Decode(filename string, data []byte) (*Document, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	switch ext {
	case "xlsx", "xlsm":
		return decodeWorkbook(filename, data)
	case "csv":
		return decodeCSV(filename, data)
	case "txt":
		return decodeText(filename, data), nil
	default:
		return nil, &DecodeError{Filename: filename, Format: ext, Err: errUnsupported}
	}
}

func decodeWorkbook(filename string, data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Filename: filename, Format: "xlsx", Err: err}
	}
	defer func() { _ = f.Close() }()

	doc := &Document{Filename: filename}
	for _, name := range f.GetSheetList() {
		// raw values keep Excel times as fractional-day decimals
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &DecodeError{Filename: filename, Format: "xlsx", Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		doc.Sheets = append(doc.Sheets, Sheet{Name: name, Grid: RawGrid(rows)})
	}
	if len(doc.Sheets) == 0 {
		return nil, &DecodeError{Filename: filename, Format: "xlsx", Err: errors.New("workbook has no sheets")}
	}
	return doc, nil
}

func decodeCSV(filename string, data []byte) (*Document, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Filename: filename, Format: "csv", Err: err}
		}
		rows = append(rows, rec)
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &Document{Filename: filename, Sheets: []Sheet{{Name: name, Grid: RawGrid(rows)}}}, nil
}

func decodeText(filename string, data []byte) *Document {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l}
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &Document{Filename: filename, Sheets: []Sheet{{Name: name, Grid: RawGrid(rows)}}, Text: text}
}
