// Package install implements InstallEngine: per-package installation,
// recursive over dependencies, ending in a symlink promotion that is the
// pipeline's sole commit point.
package install

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppkgd/ppkgd/formula"
	"github.com/ppkgd/ppkgd/internal/archive"
	"github.com/ppkgd/ppkgd/internal/cache"
	"github.com/ppkgd/ppkgd/internal/formularesolver"
	"github.com/ppkgd/ppkgd/internal/paths"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
	"github.com/ppkgd/ppkgd/internal/proc"
	"github.com/ppkgd/ppkgd/internal/receipt"
	"github.com/ppkgd/ppkgd/internal/sysinfo"
)

// Engine installs packages by name, recursing into their dependency trees.
type Engine struct {
	Paths          *paths.Paths
	Resolver       *formularesolver.Resolver
	Cache          *cache.Cache
	TargetPlatform string
	Force          bool
}

// Install resolves packageName's formula, recursively installs its
// dependencies left-to-right, then installs packageName itself. If Force
// is false and installed/<packageName> is already a valid link, the
// package (and by extension nothing beneath it in this call) is skipped.
func (e *Engine) Install(ctx context.Context, packageName string) error {
	if !e.Force && e.alreadyInstalled(packageName) {
		return nil
	}

	f, err := e.Resolver.Lookup(packageName, e.TargetPlatform)
	if err != nil {
		return err
	}

	for _, dep := range f.Deps() {
		if dep == packageName {
			return &ppkgerr.SelfDependencyError{Package: packageName}
		}
	}

	for _, dep := range f.Deps() {
		if err := e.Install(ctx, dep); err != nil {
			return fmt.Errorf("installing dependency %q of %q: %w", dep, packageName, err)
		}
	}

	return e.installSelf(ctx, packageName, f)
}

func (e *Engine) alreadyInstalled(packageName string) bool {
	link := filepath.Join(e.Paths.InstalledDir(), packageName)
	target, err := os.Readlink(link)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(e.Paths.InstalledDir(), target, ".uppm", "manifest.txt"))
	return err == nil && info.Mode().IsRegular()
}

func (e *Engine) installSelf(ctx context.Context, packageName string, f *formula.Formula) error {
	sessionID := computeSessionID(f.BinURL, time.Now().Unix(), os.Getpid())

	if _, err := e.Paths.PrepareSession(); err != nil {
		return err
	}

	ext := binExtension(f.BinURL)
	artifactPath, err := e.Cache.Fetch(ctx, f.BinURL, f.BinSha, ext, sessionID)
	if err != nil {
		return err
	}

	if err := paths.EnsureDir(e.Paths.InstalledDir()); err != nil {
		return err
	}

	installRoot := filepath.Join(e.Paths.InstalledDir(), sessionID)
	if err := resetDir(installRoot); err != nil {
		return err
	}

	format, isArchive := archive.DetectFormat(filepath.Base(artifactPath))
	if isArchive {
		destDir := installRoot
		if f.Unpackd != "" {
			destDir = filepath.Join(installRoot, f.Unpackd)
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return &ppkgerr.FilesystemError{Path: destDir, Err: err}
			}
		}
		if err := archive.Extract(artifactPath, destDir, format); err != nil {
			return &ppkgerr.ArchiveError{Path: artifactPath, Err: err}
		}
	} else {
		dest := filepath.Join(installRoot, sessionID)
		if err := copyFile(artifactPath, dest); err != nil {
			return &ppkgerr.ArchiveError{Path: artifactPath, Err: err}
		}
	}

	if f.Install != "" {
		if err := e.runInstallScript(ctx, packageName, f, installRoot, artifactPath, ext); err != nil {
			return err
		}
	}

	uppmDir := filepath.Join(installRoot, ".uppm")
	if err := os.MkdirAll(uppmDir, 0755); err != nil {
		return &ppkgerr.FilesystemError{Path: uppmDir, Err: err}
	}

	manifestPath := filepath.Join(uppmDir, "manifest.txt")
	if err := WriteManifest(installRoot, manifestPath); err != nil {
		return err
	}

	formulaData, err := os.ReadFile(f.Path)
	if err != nil {
		return &ppkgerr.FilesystemError{Path: f.Path, Err: err}
	}
	receiptPath := filepath.Join(uppmDir, "receipt.yml")
	if err := receipt.Write(receiptPath, packageName, formulaData, time.Now().Unix()); err != nil {
		return err
	}

	return e.promoteLink(packageName, sessionID)
}

func (e *Engine) runInstallScript(ctx context.Context, packageName string, f *formula.Formula, installRoot, artifactPath, ext string) error {
	info := sysinfo.Probe(ctx)

	env := scriptEnv{
		Info:        info,
		PpkgHome:    e.Paths.Home(),
		PackageName: packageName,
		Formula:     f,
		BinFilename: filepath.Base(artifactPath),
		BinFiletype: ext,
		BinFilepath: artifactPath,
		InstallDir:  filepath.Join(e.Paths.InstalledDir(), packageName),
		DepNames:    f.Deps(),
	}

	script := buildScript(env)

	var stdout, stderr bytes.Buffer
	status, err := proc.Run(ctx, proc.Request{
		Argv:   []string{"/bin/sh", "-c", script},
		Env:    os.Environ(),
		Dir:    installRoot,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return &ppkgerr.FilesystemError{Path: "/bin/sh", Err: err}
	}
	if !status.Success() {
		return &ppkgerr.InstallScriptFailedError{Package: packageName, Status: status.String()}
	}
	return nil
}

func (e *Engine) promoteLink(packageName, sessionID string) error {
	installedDir := e.Paths.InstalledDir()
	linkPath := filepath.Join(installedDir, packageName)

	const maxAttempts = 8
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := os.Lstat(linkPath); err == nil {
			if err := os.RemoveAll(linkPath); err != nil {
				return &ppkgerr.FilesystemError{Path: linkPath, Err: err}
			}
		}
		if err := os.Symlink(sessionID, linkPath); err == nil {
			return nil
		} else if !os.IsExist(err) {
			return &ppkgerr.FilesystemError{Path: linkPath, Err: err}
		}
	}
	return &ppkgerr.FilesystemError{Path: linkPath, Err: fmt.Errorf("could not promote link after %d attempts", maxAttempts)}
}

// computeSessionID derives the per-install identifier: SHA-256 of the
// literal string "<bin_url>|<unix-time>|<pid>".
func computeSessionID(binURL string, unixTime int64, pid int) string {
	s := fmt.Sprintf("%s|%d|%d", binURL, unixTime, pid)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func binExtension(binURL string) string {
	base := filepath.Base(binURL)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tar.lzma", ".tar.bz2"} {
		if len(base) > len(ext) && base[len(base)-len(ext):] == ext {
			return normalizeExt(ext)
		}
	}
	return filepath.Ext(base)
}

func normalizeExt(ext string) string {
	switch ext {
	case ".tar.gz":
		return ".tgz"
	case ".tar.xz":
		return ".txz"
	case ".tar.lzma":
		return ".tlz"
	case ".tar.bz2":
		return ".tbz2"
	default:
		return ext
	}
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return &ppkgerr.FilesystemError{Path: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &ppkgerr.FilesystemError{Path: dir, Err: err}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
