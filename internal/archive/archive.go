package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

type Method string

const (
	MethodDeflate Method = "deflate"
	MethodStore   Method = "store"
	MethodZstd    Method = "zstd"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodDeflate, MethodStore, MethodZstd:
		return m, nil
	case "":
		return MethodDeflate, nil
	default:
		return "", fmt.Errorf("unknown compression method: %s", s)
	}
}

func (m Method) id() uint16 {
	switch m {
	case MethodStore:
		return zip.Store
	case MethodZstd:
		return zstd.ZipMethodWinZip
	default:
		return zip.Deflate
	}
}

// FileName is the archive name of a volume inside a backup directory.
func FileName(volume string) string {
	return volume + ".zip"
}

// VolumeOf reports the volume named by an archive file name.
func VolumeOf(fileName string) (string, bool) {
	volume, ok := strings.CutSuffix(fileName, ".zip")
	if !ok || volume == "" {
		return "", false
	}
	return volume, true
}

func PathFor(dir, volume string) string {
	return filepath.Join(dir, FileName(volume))
}

// Writer appends entries to a new zip file. It is not safe for concurrent
// use; a single goroutine owns it from Create to Close.
type Writer struct {
	f      *os.File
	zw     *zip.Writer
	method Method
}

func Create(path string, method Method) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedBetterCompression)))

	return &Writer{
		f:      f,
		zw:     zw,
		method: method,
	}, nil
}

// Files up to bufferLimit are read completely before their entry is created,
// so a failed read adds nothing to the archive.
const bufferLimit = 8 << 20

// AddFile stores the file at src under name and returns the bytes read.
func (w *Writer) AddFile(src, name string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open src: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat src: %w", err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("failed to build header: %w", err)
	}
	hdr.Name = name
	hdr.Method = w.method.id()
	hdr.Modified = info.ModTime()

	var data []byte
	if info.Size() <= bufferLimit {
		data, err = io.ReadAll(f)
		if err != nil {
			return 0, fmt.Errorf("failed to read src: %w", err)
		}
	}

	out, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("failed to create entry %s: %w", name, err)
	}

	if info.Size() <= bufferLimit {
		n, err := out.Write(data)
		if err != nil {
			return int64(n), fmt.Errorf("failed to write entry %s: %w", name, err)
		}
		return int64(n), nil
	}

	// A read failure here leaves a truncated entry behind.
	n, err := io.Copy(out, f)
	if err != nil {
		return n, fmt.Errorf("failed to write entry %s: %w", name, err)
	}

	return n, nil
}

// Copy re-encodes an entry of another archive, keeping its name and
// modification time.
func (w *Writer) Copy(src *zip.File) (int64, error) {
	in, err := src.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open entry %s: %w", src.Name, err)
	}

	defer func(in io.ReadCloser) {
		_ = in.Close()
	}(in)

	hdr := &zip.FileHeader{
		Name:     src.Name,
		Method:   w.method.id(),
		Modified: src.Modified,
	}
	hdr.SetMode(src.Mode())

	out, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("failed to create entry %s: %w", src.Name, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		return n, fmt.Errorf("failed to copy entry %s: %w", src.Name, err)
	}

	return n, nil
}

func (w *Writer) Close() error {
	zerr := w.zw.Close()
	ferr := w.f.Close()

	if zerr != nil {
		return fmt.Errorf("failed to finish archive: %w", zerr)
	}
	if ferr != nil {
		return fmt.Errorf("failed to close archive: %w", ferr)
	}

	return nil
}

// Reader gives indexed read access to an existing archive. Entries may be
// opened from several goroutines at once.
type Reader struct {
	rc    *zip.ReadCloser
	index map[string]*zip.File
}

func Open(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	rc.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	index := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		index[f.Name] = f
	}

	return &Reader{
		rc:    rc,
		index: index,
	}, nil
}

func (r *Reader) Lookup(name string) (*zip.File, bool) {
	f, ok := r.index[name]
	return f, ok
}

func (r *Reader) Files() []*zip.File {
	return r.rc.File
}

func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.rc.File))
	for _, f := range r.rc.File {
		names = append(names, f.Name)
	}

	return names
}

func (r *Reader) Close() error {
	return r.rc.Close()
}
