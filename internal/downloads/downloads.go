// Package downloads is the server side of PDF persistence: it decodes
// data-URI uploads, stores them in the downloads directory and lists them.
package downloads

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrBadDataURI   = errors.New("invalid data uri")
	ErrBadFileName  = errors.New("invalid file name")
	ErrTooLarge     = errors.New("upload too large")
	ErrEmptyPayload = errors.New("empty payload")
)

// EncodeDataURI serializes a PDF as
// "data:application/pdf;filename=<name>;base64,<payload>".
func EncodeDataURI(fileName string, pdf []byte) string {
	var b strings.Builder
	b.Grow(len(pdf)*4/3 + 64)
	b.WriteString("data:application/pdf;filename=")
	b.WriteString(fileName)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(pdf))
	return b.String()
}

// DecodeDataURI returns the bytes after the first comma, base64 decoded.
func DecodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("%w: no payload separator", ErrBadDataURI)
	}
	if !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: header %q", ErrBadDataURI, header)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// SafeName maps a requested file name to the name stored on disk. Path
// separators and leading dots become "-", so the name stays inside the
// directory and is never hidden. Empty and all-dot names are rejected.
func SafeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if strings.Trim(trimmed, ".") == "" {
		return "", fmt.Errorf("%w: %q", ErrBadFileName, name)
	}
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '-'
		}
		return r
	}, trimmed)
	rest := strings.TrimLeft(safe, ".")
	return strings.Repeat("-", len(safe)-len(rest)) + rest, nil
}

// File describes one stored download.
type File struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Pages    *int      `json:"pages,omitempty"`
}

// SaveResult is what a successful save reports back.
type SaveResult struct {
	// Name is the stored file name after SafeName.
	Name     string
	FilePath string
	FileSize int64
}

// Area is a directory of stored PDFs.
type Area struct {
	dir      string
	maxBytes int64
	log      *slog.Logger
}

// NewArea creates dir if needed. maxBytes <= 0 disables the size check.
func NewArea(dir string, maxBytes int64, log *slog.Logger) (*Area, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Area{dir: dir, maxBytes: maxBytes, log: log.With("component", "downloads")}, nil
}

func (a *Area) Dir() string { return a.dir }

// Save decodes pdfData and writes it under fileName, replacing any previous file.
func (a *Area) Save(pdfData, fileName string) (SaveResult, error) {
	name, err := SafeName(fileName)
	if err != nil {
		return SaveResult{}, err
	}
	data, err := DecodeDataURI(pdfData)
	if err != nil {
		return SaveResult{}, err
	}
	if a.maxBytes > 0 && int64(len(data)) > a.maxBytes {
		return SaveResult{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return a.write(name, data)
}

// SaveBytes stores raw PDF bytes under fileName.
func (a *Area) SaveBytes(fileName string, data []byte) (SaveResult, error) {
	name, err := SafeName(fileName)
	if err != nil {
		return SaveResult{}, err
	}
	return a.write(name, data)
}

func (a *Area) write(name string, data []byte) (SaveResult, error) {
	tmp, err := os.CreateTemp(a.dir, ".upload-*")
	if err != nil {
		return SaveResult{}, fmt.Errorf("save %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return SaveResult{}, fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return SaveResult{}, fmt.Errorf("save %s: %w", name, err)
	}
	dst := filepath.Join(a.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return SaveResult{}, fmt.Errorf("save %s: %w", name, err)
	}
	a.log.Info("download saved", "file", name, "bytes", len(data))
	return SaveResult{Name: name, FilePath: dst, FileSize: int64(len(data))}, nil
}

// Open returns the stored file's path if it exists.
func (a *Area) Open(fileName string) (string, error) {
	name, err := SafeName(fileName)
	if err != nil {
		return "", err
	}
	p := filepath.Join(a.dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

// List returns every stored file sorted by name. PDFs that parse carry a
// page count.
func (a *Area) List() ([]File, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("read downloads dir: %w", err)
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		f := File{Name: e.Name(), Size: info.Size(), Modified: info.ModTime()}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			if meta, err := InspectFile(filepath.Join(a.dir, e.Name())); err == nil {
				n := meta.Pages
				f.Pages = &n
			} else {
				a.log.Debug("pdf inspect failed", "file", e.Name(), "error", err)
			}
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// InspectFile reads a stored PDF and reports its pages.
func InspectFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	return Inspect(bytes.NewReader(data), int64(len(data)))
}
