// Package archive normalizes every supported container format into a
// single extracted directory. Format detection is by filename suffix,
// multi-part suffixes first, and archives that wrap their contents in one
// top-level directory are flattened after extraction.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrUnsupportedFormat is returned for suffixes no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// tarSuffixes and singleSuffixes drive format dispatch. Order matters:
// ".tar.gz" must be recognized before ".gz".
var tarSuffixes = []string{
	".tar.gz", ".tgz",
	".tar.bz2", ".tbz", ".tbz2",
	".tar.xz", ".txz",
	".tar.zst", ".tzst",
	".tar",
}

var singleSuffixes = []string{".zip", ".gz", ".bz2", ".xz", ".zst"}

// Extractor decompresses release assets.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Decompress extracts archivePath into a fresh subdirectory of outputRoot
// named after the archive's stem and returns that directory. Single-file
// compressed inputs yield a directory containing the one decompressed
// file.
func (e *Extractor) Decompress(archivePath, outputRoot string) (string, error) {
	name := strings.ToLower(filepath.Base(archivePath))

	suffix := matchSuffix(name)
	if suffix == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, archivePath)
	}

	destDir := filepath.Join(outputRoot, Stem(filepath.Base(archivePath)))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create extraction dir: %w", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	switch suffix {
	case ".tar":
		err = extractTar(f, destDir)
	case ".tar.gz", ".tgz":
		err = extractCompressedTar(f, destDir, newGzipReader)
	case ".tar.bz2", ".tbz", ".tbz2":
		err = extractCompressedTar(f, destDir, newBzip2Reader)
	case ".tar.xz", ".txz":
		err = extractCompressedTar(f, destDir, newXzReader)
	case ".tar.zst", ".tzst":
		err = extractCompressedTar(f, destDir, newZstdReader)
	case ".zip":
		err = extractZip(archivePath, destDir)
	case ".gz":
		err = extractSingle(f, destDir, Stem(filepath.Base(archivePath)), newGzipReader)
	case ".bz2":
		err = extractSingle(f, destDir, Stem(filepath.Base(archivePath)), newBzip2Reader)
	case ".xz":
		err = extractSingle(f, destDir, Stem(filepath.Base(archivePath)), newXzReader)
	case ".zst":
		err = extractSingle(f, destDir, Stem(filepath.Base(archivePath)), newZstdReader)
	}
	if err != nil {
		os.RemoveAll(destDir)
		return "", fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
	}

	if err := flatten(destDir); err != nil {
		return "", fmt.Errorf("flatten %s: %w", destDir, err)
	}
	return destDir, nil
}

func matchSuffix(name string) string {
	for _, s := range tarSuffixes {
		if strings.HasSuffix(name, s) {
			return s
		}
	}
	for _, s := range singleSuffixes {
		if strings.HasSuffix(name, s) {
			return s
		}
	}
	return ""
}

// Stem strips the recognized archive suffix from a filename, so that
// "tool-1.2.tar.gz" extracts into "tool-1.2".
func Stem(filename string) string {
	lower := strings.ToLower(filename)
	if s := matchSuffix(lower); s != "" {
		return filename[:len(filename)-len(s)]
	}
	if ext := filepath.Ext(filename); ext != "" {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}

type decompressFunc func(io.Reader) (io.ReadCloser, error)

func newGzipReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func newBzip2Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(r)), nil
}

func newXzReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

func newZstdReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

func extractCompressedTar(f io.Reader, destDir string, wrap decompressFunc) error {
	r, err := wrap(f)
	if err != nil {
		return fmt.Errorf("create decompressor: %w", err)
	}
	defer r.Close()
	return extractTar(r, destDir)
}

func extractTar(r io.Reader, destDir string) error {
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target := filepath.Join(destDir, header.Name)

		// Prevent path traversal
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(outFile, tarReader); err != nil {
				outFile.Close()
				return fmt.Errorf("write file %s: %w", target, err)
			}
			outFile.Close()

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip devices, fifos and other special entries
			continue
		}
	}
	return nil
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target := filepath.Join(destDir, zf.Name)

		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", zf.Name)
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", target, err)
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", zf.Name, err)
		}
		outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, zf.Mode())
		if err != nil {
			rc.Close()
			return fmt.Errorf("create file %s: %w", target, err)
		}
		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return fmt.Errorf("write file %s: %w", target, err)
		}
	}
	return nil
}

// extractSingle decompresses a non-archive compressed file into destDir
// under outName.
func extractSingle(f io.Reader, destDir, outName string, wrap decompressFunc) error {
	r, err := wrap(f)
	if err != nil {
		return fmt.Errorf("create decompressor: %w", err)
	}
	defer r.Close()

	outPath := filepath.Join(destDir, outName)
	outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", outPath, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, r); err != nil {
		return fmt.Errorf("write file %s: %w", outPath, err)
	}
	return nil
}

// flatten moves the contents of a lone top-level wrapper directory up into
// root, so archives packed with and without an enclosing folder extract
// identically.
func flatten(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	wrapper := filepath.Join(root, entries[0].Name())
	inner, err := os.ReadDir(wrapper)
	if err != nil {
		return err
	}

	// A child sharing the wrapper's name would collide; keep the wrapper
	// in that case.
	for _, entry := range inner {
		if entry.Name() == entries[0].Name() {
			return nil
		}
	}

	for _, entry := range inner {
		src := filepath.Join(wrapper, entry.Name())
		dst := filepath.Join(root, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s: %w", entry.Name(), err)
		}
	}
	return os.Remove(wrapper)
}
