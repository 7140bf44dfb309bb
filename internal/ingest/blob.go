package ingest

import (
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/spf13/afero"

	"github.com/joseph-ayodele/records-ingest/internal/common"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// BlobStore keeps admitted bytes addressed by their sha256 hex digest,
// laid out as <root>/<hash[:2]>/<hash>.
type BlobStore struct {
	fs afero.Fs
}

// NewBlobStore stores blobs under dir on the local filesystem.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// NewBlobStoreFs stores blobs on an arbitrary afero filesystem.
func NewBlobStoreFs(fs afero.Fs) *BlobStore {
	return &BlobStore{fs: fs}
}

func blobPath(hash string) (string, error) {
	if !hashPattern.MatchString(hash) {
		return "", fmt.Errorf("%w: malformed content hash %q", common.ErrInvalidInput, hash)
	}
	return path.Join("/", hash[:2], hash), nil
}

// Put writes data under hash. Writing an existing hash is a no-op.
func (b *BlobStore) Put(hash string, data []byte) error {
	p, err := blobPath(hash)
	if err != nil {
		return err
	}
	if ok, _ := afero.Exists(b.fs, p); ok {
		return nil
	}
	if err := b.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := b.fs.Rename(tmp, p); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

// Get returns the bytes stored under hash, or common.ErrNotFound.
func (b *BlobStore) Get(hash string) ([]byte, error) {
	p, err := blobPath(hash)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(b.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, hash)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob stored under hash. Missing blobs are ignored.
func (b *BlobStore) Delete(hash string) error {
	p, err := blobPath(hash)
	if err != nil {
		return err
	}
	if err := b.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
