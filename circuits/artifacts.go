package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.vocdoni.io/dvote/log"
)

// CheckHashes determines whether artifact content is checked against its
// expected sha256 when loaded or downloaded. It can be disabled by setting
// the SHIELDPOOL_CHECK_HASHES environment variable to false or 0.
var CheckHashes = true

// BaseDir is the local artifact cache. Artifacts not found there are
// downloaded and stored. Defaults to the SHIELDPOOL_ARTIFACTS_DIR environment
// variable or a directory under the user cache.
var BaseDir string

func init() {
	if checkHashes := os.Getenv("SHIELDPOOL_CHECK_HASHES"); checkHashes != "" {
		if strings.ToLower(checkHashes) == "false" || checkHashes == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("SHIELDPOOL_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			BaseDir = filepath.Join(os.TempDir(), "shieldpool-artifacts")
		} else {
			BaseDir = filepath.Join(home, ".cache", "shieldpool-artifacts")
		}
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("failed to create artifact cache %s: %v", BaseDir, err)
	}
}

// Artifact holds a remote URL, the sha256 of the content and the content
// itself. Content is loaded from the local cache by hash, or downloaded from
// the remote URL, and its integrity is checked either way.
type Artifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// Load fills Content from the local cache. It is a no-op if the content is
// already set. A missing cache entry is reported as an error so the caller
// can fall back to Download.
func (a *Artifact) Load() error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(a.Hash))
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifact not cached at %s: %w", path, err)
	}
	if CheckHashes {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("hash mismatch for %s: expected %x, got %x", path, a.Hash, sum)
		}
	}
	a.Content = content
	return nil
}

// Download fetches the artifact from its remote URL, verifies the hash and
// stores it in the local cache. Content must still be picked up with Load.
func (a *Artifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("artifact not cached and no remote url provided")
	}
	if _, err := url.Parse(a.RemoteURL); err != nil {
		return fmt.Errorf("invalid artifact url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.RemoteURL, nil)
	if err != nil {
		return fmt.Errorf("error creating artifact request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading %s: %w", a.RemoteURL, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("cannot close response body", "error", err.Error())
		}
	}()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading %s: http status %d", a.RemoteURL, res.StatusCode)
	}
	content, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", a.RemoteURL, err)
	}
	if CheckHashes {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("hash mismatch for %s: expected %x, got %x", a.RemoteURL, a.Hash, sum)
		}
	}
	path := filepath.Join(BaseDir, hex.EncodeToString(a.Hash))
	tmp := path + ".partial"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("error storing artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error renaming artifact: %w", err)
	}
	log.Infow("artifact downloaded", "url", a.RemoteURL, "size", len(content))
	return nil
}
