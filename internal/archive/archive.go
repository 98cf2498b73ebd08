// Package archive extracts the payload formats the install engine places
// into a package's installed directory: zip, and tar wrapped in gzip,
// xz/lzma, or bzip2. Extraction preserves modification times, the install
// engine's one hard requirement for placed payload.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Format identifies one archive container+compression combination.
type Format string

const (
	FormatZip  Format = "zip"
	FormatTgz  Format = "tgz"
	FormatTxz  Format = "txz"
	FormatTlz  Format = "tlz"
	FormatTbz2 Format = "tbz2"
)

// formatsByExtension maps the installable extensions named in the core's
// placement rule to their Format.
var formatsByExtension = map[string]Format{
	".zip":  FormatZip,
	".tgz":  FormatTgz,
	".txz":  FormatTxz,
	".tlz":  FormatTlz,
	".tbz2": FormatTbz2,
}

// DetectFormat returns the archive Format implied by path's extension, and
// false if the extension does not name a supported archive container —
// the caller should treat such a path as an opaque binary artifact.
func DetectFormat(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatsByExtension[ext]
	return f, ok
}

// Extract unpacks the archive at srcPath into destDir, which must already
// exist. Directory entries are created before their contents; file modes
// and modification times from the archive are preserved.
func Extract(srcPath, destDir string, format Format) error {
	switch format {
	case FormatZip:
		return extractZip(srcPath, destDir)
	case FormatTgz:
		return extractTar(srcPath, destDir, gzipReader)
	case FormatTxz:
		return extractTar(srcPath, destDir, xzReader)
	case FormatTlz:
		return extractTar(srcPath, destDir, lzmaReader)
	case FormatTbz2:
		return extractTar(srcPath, destDir, bzip2Reader)
	default:
		return fmt.Errorf("unsupported archive format: %s", format)
	}
}

func gzipReader(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
func xzReader(r io.Reader) (io.Reader, error)   { return xz.NewReader(r) }
func lzmaReader(r io.Reader) (io.Reader, error) { return lzma.NewReader(r) }
func bzip2Reader(r io.Reader) (io.Reader, error) { return bzip2.NewReader(r, nil) }

func extractTar(srcPath, destDir string, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	decompressed, err := decompress(f)
	if err != nil {
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}

	tr := tar.NewReader(decompressed)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry in %s: %w", srcPath, err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeRegularFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
			continue // symlinks carry no meaningful mtime to preserve
		default:
			continue
		}

		if err := os.Chtimes(target, hdr.ModTime, hdr.ModTime); err != nil {
			return fmt.Errorf("preserving mtime for %s: %w", target, err)
		}
	}
}

func extractZip(srcPath, destDir string) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	// Directories first, then files, matching the tar invariant that
	// directory entries are created before their contents.
	for _, zf := range zr.File {
		if !zf.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(destDir, zf.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(target, 0755); err != nil {
			return err
		}
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(destDir, zf.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %s: %w", zf.Name, err)
		}
		err = writeRegularFile(target, rc, zf.Mode())
		rc.Close()
		if err != nil {
			return err
		}

		mtime := zf.Modified
		if mtime.IsZero() {
			mtime = time.Now()
		}
		if err := os.Chtimes(target, mtime, mtime); err != nil {
			return fmt.Errorf("preserving mtime for %s: %w", target, err)
		}
	}

	return nil
}

func writeRegularFile(target string, r io.Reader, mode os.FileMode) (err error) {
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, r)
	return err
}

// safeJoin joins destDir with an archive-supplied relative name, rejecting
// any entry that would escape destDir via ".." traversal.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
		return "", fmt.Errorf("archive entry %q escapes destination directory", name)
	}
	return target, nil
}
