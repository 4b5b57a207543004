package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/teris-io/shortid"
)

const MaxFileSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// extensions maps accepted content types to the extension of the stored file.
var extensions = map[string]string{
	"image/jpg":       "jpg",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"application/pdf": "pdf",
}

func Supported(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

type FileStore interface {
	Save(name, contentType string, r io.Reader) (StoredFile, error)
}

type StoredFile struct {
	Name        string
	URL         string
	ContentType string
	Size        int64
}

// DiskStore writes uploads to a local directory served under /uploads/.
type DiskStore struct {
	dir     string
	baseURL *url.URL
	log     *log.Logger
}

func NewDiskStore(dir string, publicURL *url.URL, l *log.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{
		dir:     dir,
		baseURL: publicURL,
		log:     l,
	}, nil
}

func (d *DiskStore) Dir() string {
	return d.dir
}

// Save stores the contents of r under a collision-free name derived from
// the original file name.
func (d *DiskStore) Save(name, contentType string, r io.Reader) (StoredFile, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return StoredFile{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	sid, err := shortid.Generate()
	if err != nil {
		return StoredFile{}, fmt.Errorf("generate file id: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s.%s", sanitizeName(name), sid, ext)
	dst := filepath.Join(d.dir, storedName)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > MaxFileSize {
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			d.log.Printf("remove partial upload %q: %v", dst, rmErr)
		}
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}

	return StoredFile{
		Name:        storedName,
		URL:         d.publicURL(storedName),
		ContentType: contentType,
		Size:        n,
	}, nil
}

func (d *DiskStore) publicURL(name string) string {
	u := *d.baseURL
	u.Path = path.Join("/", u.Path, "uploads", name)
	return u.String()
}

// sanitizeName reduces an uploaded file name to a safe base name without
// its extension.
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}

	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "file"
	}
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
