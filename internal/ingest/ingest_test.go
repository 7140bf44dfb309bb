package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

func newTestGate(t *testing.T) (*Gate, repository.FileRepository, *BlobStore) {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: "file:" + filepath.Join(t.TempDir(), "ingest.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	files := repository.NewFileRepository(store, nil)
	blobs := NewBlobStoreFs(afero.NewMemMapFs())
	return NewGate(files, blobs, nil), files, blobs
}

func TestGateRejectsIdenticalBytes(t *testing.T) {
	ctx := context.Background()
	gate, files, blobs := newTestGate(t)
	data := []byte("IT101,Intro to Programming,Lec,3,MWF,0.3333,0.375,Rm 101\n")

	first, err := gate.Admit(ctx, Upload{Filename: "cor.csv", Category: constants.COR, Bytes: data})
	require.NoError(t, err)
	assert.Equal(t, HashHex(data), first.ContentHash)
	assert.Equal(t, "csv", first.FileExt)

	_, err = gate.Admit(ctx, Upload{Filename: "renamed.csv", Category: constants.Grades, Bytes: data})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateContent))
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	require.NotNil(t, dup.Existing)
	assert.Equal(t, first.ID, dup.Existing.ID)

	counts, err := files.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[constants.Category]int{constants.COR: 1}, counts)

	stored, err := blobs.Get(first.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	loaded, blob, err := gate.Load(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "cor.csv", loaded.Filename)
	assert.Equal(t, data, blob)
}

func TestGateConcurrentIdenticalUploads(t *testing.T) {
	ctx := context.Background()
	gate, files, _ := newTestGate(t)
	data := []byte("same bytes")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		dups     int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Admit(ctx, Upload{Filename: "g.txt", Category: constants.GeneralInfo, Bytes: data})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, common.ErrDuplicateContent):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 7, dups)
	counts, err := files.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[constants.GeneralInfo])
}

func TestGateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := newTestGate(t)

	_, err := gate.Admit(ctx, Upload{Filename: "x.csv", Category: constants.COR})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = gate.Admit(ctx, Upload{Filename: "x.csv", Category: "receipts", Bytes: []byte("a")})
	assert.True(t, errors.Is(err, common.ErrUnknownCategory))
}

func TestBlobStore(t *testing.T) {
	b := NewBlobStoreFs(afero.NewMemMapFs())
	data := []byte("hello")
	hash := HashHex(data)

	require.NoError(t, b.Put(hash, data))
	require.NoError(t, b.Put(hash, data), "rewriting a hash is a no-op")

	got, err := b.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, b.Delete(hash))
	_, err = b.Get(hash)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	assert.True(t, errors.Is(b.Put("../../etc/passwd", data), common.ErrInvalidInput))
}

func TestBlobStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	b := NewBlobStore(dir)
	data := []byte("on disk")
	hash := HashHex(data)
	require.NoError(t, b.Put(hash, data))

	raw, err := os.ReadFile(filepath.Join(dir, hash[:2], hash))
	require.NoError(t, err)
	assert.Equal(t, data, raw)
}

func TestCategoryFromPath(t *testing.T) {
	root := filepath.FromSlash("/uploads")
	tests := []struct {
		path    string
		want    constants.Category
		wantErr error
	}{
		{"/uploads/grades/a.xlsx", constants.Grades, nil},
		{"/uploads/cor/2024/b.csv", constants.COR, nil},
		{"/uploads/faculty-schedule/c.xlsx", constants.FacultySchedule, nil},
		{"/uploads/loose.xlsx", "", common.ErrInvalidInput},
		{"/uploads/receipts/r.xlsx", "", common.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := CategoryFromPath(root, filepath.FromSlash(tt.path))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := newTestGate(t)
	ing := NewFSIngestor(gate, nil)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "grades", "a.csv"), "STUDENT NUMBER,2021-0001\n")
	writeFile(t, filepath.Join(root, "grades", "copy-of-a.csv"), "STUDENT NUMBER,2021-0001\n")
	writeFile(t, filepath.Join(root, "cor", "b.csv"), "PROGRAM,BSIT\n")
	writeFile(t, filepath.Join(root, "cor", "notes.pdf"), "ignored")
	writeFile(t, filepath.Join(root, "unknown", "c.csv"), "x")
	writeFile(t, filepath.Join(root, ".blobs", "d.csv"), "hidden")

	results, stats, err := ing.IngestDirectory(ctx, root, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Len(t, results, 4)

	byName := map[string]IngestionResult{}
	for _, r := range results {
		byName[filepath.Base(r.SourcePath)] = r
	}
	assert.Equal(t, constants.COR, byName["b.csv"].Category)
	assert.NotEmpty(t, byName["c.csv"].Err)
	assert.Equal(t, byName["a.csv"].FileID, byName["copy-of-a.csv"].FileID)

	_, _, err = ing.IngestDirectory(ctx, " ", true)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestCollectUploads(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Grades", "a.csv"), "STUDENT NUMBER,2021-0001\n")
	writeFile(t, filepath.Join(root, "cor", "nested", "b.xlsx"), "zip")
	writeFile(t, filepath.Join(root, "cor", "notes.pdf"), "ignored")
	writeFile(t, filepath.Join(root, "top.csv"), "no category")
	writeFile(t, filepath.Join(root, ".blobs", "d.csv"), "hidden")

	uploads, stats, err := CollectUploads(root, true, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Scanned)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)

	require.Len(t, uploads, 2)
	byName := map[string]Upload{}
	for _, u := range uploads {
		byName[u.Filename] = u
	}
	assert.Equal(t, constants.Grades, byName["a.csv"].Category)
	assert.Equal(t, constants.COR, byName["b.xlsx"].Category)
	assert.Equal(t, []byte("zip"), byName["b.xlsx"].Bytes)

	_, _, err = CollectUploads("", true, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestIngestPathRejectsExtension(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ing := NewFSIngestor(gate, nil)
	path := filepath.Join(t.TempDir(), "scan.pdf")
	writeFile(t, path, "%PDF")

	_, err := ing.IngestPath(context.Background(), constants.COR, path)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestWatcherEmitsCategoryFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "grades", "existing.xlsx"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cor"), 0o755))

	events, _, err := StartWatcher(ctx, WatchConfig{Root: root, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() FileEvent {
		select {
		case ev := <-events:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return FileEvent{}
		}
	}

	ev := next()
	assert.Equal(t, constants.Grades, ev.Category)
	assert.Equal(t, "existing.xlsx", filepath.Base(ev.Path))

	writeFile(t, filepath.Join(root, "cor", "new.csv"), "PROGRAM,BSIT")
	ev = next()
	assert.Equal(t, constants.COR, ev.Category)
	assert.Equal(t, "new.csv", filepath.Base(ev.Path))

	cancel()
	for range events {
	}
}

func TestStartWatcherRequiresRoot(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
