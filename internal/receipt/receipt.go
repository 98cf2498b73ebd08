// Package receipt writes the install receipt recorded at
// installed/<sessionID>/.uppm/receipt.yml: the formula file streamed
// verbatim, framed by a pkgname header and a signature/timestamp footer.
package receipt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

// ToolVersion is the signature string stamped into every receipt footer.
var ToolVersion = "ppkgd/0.1.0"

// Write streams a receipt to path: a "pkgname: <packageName>\n" header, the
// verbatim bytes of formulaData, and a "\nsignature: <ToolVersion>\ntimestamp: <unixSeconds>\n"
// footer. A short write at any stage is reported as an error; no partial
// file is left at path on failure — it is written via a temp file and
// renamed into place only once fully flushed.
func Write(path string, packageName string, formulaData []byte, unixSeconds int64) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "receipt-*")
	if err != nil {
		return &ppkgerr.FilesystemError{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed away

	if err := writeAll(tmp, []byte(fmt.Sprintf("pkgname: %s\n", packageName))); err != nil {
		tmp.Close()
		return err
	}
	if err := writeAll(tmp, formulaData); err != nil {
		tmp.Close()
		return err
	}
	footer := fmt.Sprintf("\nsignature: %s\ntimestamp: %d\n", ToolVersion, unixSeconds)
	if err := writeAll(tmp, []byte(footer)); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return &ppkgerr.FilesystemError{Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return &ppkgerr.FilesystemError{Path: path, Err: err}
	}
	return nil
}

func writeAll(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return &ppkgerr.FilesystemError{Path: "", Err: err}
	}
	if n != len(data) {
		return &ppkgerr.FilesystemError{Path: "", Err: fmt.Errorf("short write: wrote %d of %d bytes", n, len(data))}
	}
	return nil
}

