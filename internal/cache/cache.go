// Package cache implements the content-addressed download store rooted
// at downloads/: artifacts are named by their expected SHA-256 digest, and
// only promoted to that stable name after the downloaded bytes have been
// verified to hash to it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/cavaliergopher/grab/v3"

	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

// Cache is a content-addressed store of downloaded artifacts.
type Cache struct {
	dir    string
	client *grab.Client

	mu       sync.Mutex
	inflight map[string]*sync.WaitGroup // keyed by targetPath, dedups concurrent fetches of the same artifact
}

// New returns a Cache rooted at dir, which must already exist.
func New(dir string, httpClient *http.Client) *Cache {
	return &Cache{
		dir:      dir,
		client:   &grab.Client{HTTPClient: httpClient},
		inflight: make(map[string]*sync.WaitGroup),
	}
}

// Fetch returns the path to a verified local copy of the artifact at url,
// downloading it if it is not already present. expectedSha is the
// lowercase hex SHA-256 digest the bytes must hash to; extension (including
// the leading dot, e.g. ".tgz") is appended to the content-addressed name
// so the install engine can recover the archive format by inspection.
// sessionID names the temp file the download is staged into, under
// downloads/, before verification.
func (c *Cache) Fetch(ctx context.Context, url, expectedSha, extension, sessionID string) (string, error) {
	targetPath := filepath.Join(c.dir, expectedSha+extension)

	if verified(targetPath, expectedSha) {
		return targetPath, nil
	}

	wg, mine := c.claim(targetPath)
	if !mine {
		wg.Wait()
		if verified(targetPath, expectedSha) {
			return targetPath, nil
		}
		return "", fmt.Errorf("concurrent fetch of %s did not produce a verified artifact", targetPath)
	}
	defer c.release(targetPath, wg)

	// Re-check: another process may have completed the rename between our
	// first check and claiming the in-flight slot.
	if verified(targetPath, expectedSha) {
		return targetPath, nil
	}

	tempPath := filepath.Join(c.dir, sessionID)
	actualSha, err := c.download(ctx, url, tempPath)
	if err != nil {
		return "", err
	}

	if actualSha != expectedSha {
		// The temp file at tempPath is retained for diagnostics, per the
		// cache's fetch-verify-promote contract: only a verified artifact
		// is ever renamed to its content-addressed name.
		return "", &ppkgerr.ShaMismatchError{Expected: expectedSha, Actual: actualSha}
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", &ppkgerr.FilesystemError{Path: targetPath, Err: err}
	}

	slog.Debug("fetched artifact", "url", url, "path", targetPath)
	return targetPath, nil
}

// claim registers targetPath as in-flight in this process, returning the
// WaitGroup other callers should wait on and whether the caller won the
// race to perform the fetch itself.
func (c *Cache) claim(targetPath string) (*sync.WaitGroup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wg, ok := c.inflight[targetPath]; ok {
		return wg, false
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.inflight[targetPath] = wg
	return wg, true
}

func (c *Cache) release(targetPath string, wg *sync.WaitGroup) {
	c.mu.Lock()
	delete(c.inflight, targetPath)
	c.mu.Unlock()
	wg.Done()
}

func verified(targetPath, expectedSha string) bool {
	info, err := os.Stat(targetPath)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	actual, err := sha256File(targetPath)
	if err != nil {
		return false
	}
	return actual == expectedSha
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) download(ctx context.Context, url, tempPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(tempPath), 0700); err != nil {
		return "", &ppkgerr.FilesystemError{Path: filepath.Dir(tempPath), Err: err}
	}

	req, err := grab.NewRequest(tempPath, url)
	if err != nil {
		return "", &ppkgerr.NetworkError{Err: err}
	}
	req = req.WithContext(ctx)

	resp := c.client.Do(req)
	<-resp.Done

	if err := resp.Err(); err != nil {
		statusCode := 0
		if resp.HTTPResponse != nil {
			statusCode = resp.HTTPResponse.StatusCode
		}
		return "", &ppkgerr.NetworkError{StatusCode: statusCode, Err: err}
	}

	return sha256File(tempPath)
}
