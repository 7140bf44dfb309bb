package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/extractors"
	"github.com/joseph-ayodele/records-ingest/internal/ingest"
	"github.com/joseph-ayodele/records-ingest/internal/metrics"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

type harness struct {
	proc    *Processor
	records repository.RecordRepository
	runs    repository.ExtractRunRepository
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: "file:" + filepath.Join(t.TempDir(), "records.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	records := repository.NewRecordRepository(store, nil)
	reg, err := dispatch.NewRegistry(dispatch.Env{
		Records:  records,
		Students: repository.NewStudentRepository(store, nil),
	}, extractors.Handlers())
	require.NoError(t, err)

	gate := ingest.NewGate(repository.NewFileRepository(store, nil), ingest.NewBlobStoreFs(afero.NewMemMapFs()), nil)
	runs := repository.NewExtractRunRepository(store, nil)
	m := metrics.New(prometheus.NewRegistry())
	return &harness{
		proc:    NewProcessor(nil, gate, reg, runs, m),
		records: records,
		runs:    runs,
		metrics: m,
	}
}

// corWorkbook builds a certificate of registration with Excel times stored
// as fractional days, the way registrar exports arrive.
func corWorkbook(t *testing.T, section string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Sheet1"
	rows := [][]any{
		{"CERTIFICATE OF REGISTRATION"},
		{"PROGRAM:", "BS Information Technology", nil, "YEAR LEVEL:", 3, nil, "SECTION:", section},
		{},
		{"SUBJECT CODE", "DESCRIPTION", "TYPE", "UNITS", "DAY", "TIME START", "TIME END", "ROOM"},
		{"IT 301", "Web Systems", "LEC", 3, "MWF", 0.3333333333, 0.375, "Rm 204"},
		{"IT 302", "Networking 2", "LAB", 2, "TTH", 0.5416666667, 0.625, "Lab 1"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

const gradesCSV = `STUDENT NUMBER:,2021-0099
NAME:,Ana Reyes
COURSE:,BSIT
SUBJECT CODE,DESCRIPTIVE TITLE,UNITS,FINAL GRADE,REMARKS
IT 101,Intro to Computing,3,1.25,Passed
GWA,1.25
`

func TestProcessUploadStoresRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	rep, err := h.proc.ProcessUpload(ctx, ingest.Upload{Filename: "COR_BSIT_3A.xlsx", Category: constants.COR, Bytes: corWorkbook(t, "A")})
	require.NoError(t, err)
	require.Equal(t, constants.OutcomeStored, rep.Outcome, "%v", rep.Err)
	assert.NotEmpty(t, rep.RecordID)

	stored, err := h.records.ListByCategory(ctx, constants.COR)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, constants.DeptCCS, stored[0].Department)
	assert.Equal(t, "COR_BSIT_3A.xlsx", stored[0].SourceFile)
	assert.Len(t, stored[0].ContentHash, 64)
	assert.Contains(t, string(stored[0].Payload), `"time_start":"8:00 AM"`)
	assert.Contains(t, string(stored[0].Payload), `"time_start":"1:00 PM"`)

	runs, err := h.runs.ListByFile(ctx, rep.FileID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, string(constants.OutcomeStored), runs[0].Outcome)
	assert.Equal(t, rep.RecordID, runs[0].RecordID)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Outcomes.WithLabelValues("cor", "stored")))
}

func TestProcessUploadDuplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	data := corWorkbook(t, "B")

	first, err := h.proc.ProcessUpload(ctx, ingest.Upload{Filename: "cor.xlsx", Category: constants.COR, Bytes: data})
	require.NoError(t, err)
	require.Equal(t, constants.OutcomeStored, first.Outcome)

	again, err := h.proc.ProcessUpload(ctx, ingest.Upload{Filename: "cor-copy.xlsx", Category: constants.Grades, Bytes: data})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeDuplicate, again.Outcome)
	assert.ErrorIs(t, again.Err, common.ErrDuplicateContent)
	assert.Equal(t, first.FileID, again.FileID)

	stored, err := h.records.ListByCategory(ctx, constants.COR)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "a duplicate never reaches extraction")
}

func TestProcessUploadOutcomes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cases := []struct {
		name   string
		upload ingest.Upload
		want   constants.Outcome
	}{
		{"unknown student", ingest.Upload{Filename: "grades.csv", Category: constants.Grades, Bytes: []byte(gradesCSV)}, constants.OutcomeStudentNotFound},
		{"corrupt workbook", ingest.Upload{Filename: "broken.xlsx", Category: constants.COR, Bytes: []byte("not a zip archive")}, constants.OutcomeDecodeFailed},
		{"no usable data", ingest.Upload{Filename: "notes.txt", Category: constants.Curriculum, Bytes: []byte("nothing here")}, constants.OutcomeNoExtractedData},
		{"unknown category", ingest.Upload{Filename: "x.csv", Category: "payroll", Bytes: []byte("a,b")}, constants.OutcomeUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep, err := h.proc.ProcessUpload(ctx, tc.upload)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rep.Outcome)
			assert.Empty(t, rep.RecordID)
		})
	}

	_, err := h.proc.ProcessUpload(ctx, ingest.Upload{Filename: "empty.csv", Category: constants.COR})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessBatchKeepsInputOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	roster := "STUDENT ID,SURNAME,FIRST NAME,COURSE\n2021-0099,Reyes,Ana,BSIT\n"
	_, err := h.proc.ProcessUpload(ctx, ingest.Upload{Filename: "roster.csv", Category: constants.StudentsData, Bytes: []byte(roster)})
	require.NoError(t, err)

	var uploads []ingest.Upload
	for i := 0; i < 6; i++ {
		uploads = append(uploads, ingest.Upload{
			Filename: fmt.Sprintf("cor-%d.xlsx", i),
			Category: constants.COR,
			Bytes:    corWorkbook(t, string(rune('A'+i))),
		})
	}
	uploads = append(uploads,
		ingest.Upload{Filename: "grades.csv", Category: constants.Grades, Bytes: []byte(gradesCSV)},
		ingest.Upload{Filename: "again.xlsx", Category: constants.COR, Bytes: uploads[0].Bytes},
		ingest.Upload{Filename: "empty.csv", Category: constants.COR},
	)

	reports, err := h.proc.ProcessBatch(ctx, uploads, 3)
	require.NoError(t, err)
	require.Len(t, reports, len(uploads))

	for i, rep := range reports {
		assert.Equal(t, uploads[i].Filename, rep.Filename)
	}
	for _, rep := range reports[1:7] {
		assert.Equal(t, constants.OutcomeStored, rep.Outcome, "%s: %v", rep.Filename, rep.Err)
	}
	// cor-0.xlsx and again.xlsx carry the same bytes; whichever is admitted first is stored.
	assert.ElementsMatch(t,
		[]constants.Outcome{constants.OutcomeStored, constants.OutcomeDuplicate},
		[]constants.Outcome{reports[0].Outcome, reports[7].Outcome})
	assert.Equal(t, constants.OutcomeNoExtractedData, reports[8].Outcome)
	assert.ErrorIs(t, reports[8].Err, common.ErrInvalidInput)

	summary := Summarize(reports)
	assert.Equal(t, 8, summary[constants.OutcomeStored]+summary[constants.OutcomeDuplicate])
}

func TestProcessBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t)

	reports, err := h.proc.ProcessBatch(ctx, []ingest.Upload{{Filename: "a.csv", Category: constants.COR, Bytes: []byte("a")}}, 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0].Err, context.Canceled)
}

func TestProcessFileMissing(t *testing.T) {
	h := newHarness(t)
	rep, err := h.proc.ProcessUpload(context.Background(), ingest.Upload{
		Filename: "note.txt", Category: constants.GeneralInfo, Bytes: []byte(strings.Repeat("MISSION\nServe.\n", 2)),
	})
	require.NoError(t, err)
	require.Equal(t, constants.OutcomeStored, rep.Outcome, "%v", rep.Err)

	_, err = h.proc.ProcessFile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
