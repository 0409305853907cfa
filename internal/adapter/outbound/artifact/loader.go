// Package artifact implements the Artifact Loader: URI-scheme dispatch to a
// local file, an anonymous OCI pull, or an HTTPS GET, always landing in a
// temp-file-then-atomic-rename handoff for non-local sources.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
)

// Kind distinguishes the two artifact families the loader serves: they
// share every rule except file extension and OCI support (spec §4.4,
// "A sibling loader for policy artifacts is identical except...").
type Kind struct {
	Extension string
	Name      string
	AllowOCI  bool
}

var (
	ComponentKind = Kind{Extension: ".wasm", Name: "component", AllowOCI: true}
	PolicyKind    = Kind{Extension: ".yaml", Name: "policy", AllowOCI: false}
)

// Downloaded is the tagged-variant handle from spec §9 ("Polymorphism"):
// Local wraps an already-resident path, Temp owns a directory whose
// lifetime must cover the eventual move or copy.
type Downloaded interface {
	// Path is the current on-disk location of the artifact bytes.
	Path() string
	// CopyTo moves (Temp) or copies (Local) the artifact into destDir,
	// consuming the handle. On success a Temp's owning directory is
	// removed.
	CopyTo(destDir string) (string, error)
}

type localDownload struct{ path string }

func (l localDownload) Path() string { return l.path }

func (l localDownload) CopyTo(destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(l.path))
	if err := copyFile(l.path, dest); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", l.path, dest, err)
	}
	return dest, nil
}

type tempDownload struct {
	dir  string
	path string
}

func (t tempDownload) Path() string { return t.path }

// CopyTo moves via rename; on a cross-device (EXDEV) or permission rename
// failure, it falls back to copy-then-delete. The temp directory is cleaned up only on
// success (spec §4.4, §9).
func (t tempDownload) CopyTo(destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(t.path))
	if err := os.Rename(t.path, dest); err != nil {
		if !errors.Is(err, os.ErrPermission) && !isCrossDevice(err) {
			return "", fmt.Errorf("rename %s to %s: %w", t.path, dest, err)
		}
		if copyErr := copyFile(t.path, dest); copyErr != nil {
			return "", fmt.Errorf("cross-device copy fallback %s to %s: %w", t.path, dest, copyErr)
		}
		_ = os.Remove(t.path)
	}
	_ = os.RemoveAll(t.dir)
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// Load resolves uri into a Downloaded handle, per spec §4.4's scheme
// dispatch on the substring before "://".
func Load(ctx context.Context, uri string, kind Kind, httpClient *http.Client) (Downloaded, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("malformed %s uri %q: missing scheme", kind.Name, uri)
	}

	switch scheme {
	case "file":
		return loadFile(rest, kind)
	case "oci":
		if !kind.AllowOCI {
			return nil, fmt.Errorf("OCI references not supported for %s resources", kind.Name)
		}
		return loadOCI(ctx, rest, kind)
	case "https":
		return loadHTTPS(ctx, uri, kind, httpClient)
	default:
		return nil, fmt.Errorf("unsupported %s scheme: %s", kind.Name, scheme)
	}
}

func loadFile(path string, kind Kind) (Downloaded, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("path must be absolute: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}
	if !hasExtension(path, kind) {
		return nil, fmt.Errorf("invalid extension: %s", path)
	}
	return localDownload{path: path}, nil
}

func hasExtension(path string, kind Kind) bool {
	if kind.Extension == ".yaml" {
		return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
	}
	return strings.HasSuffix(path, kind.Extension)
}

// loadOCI pulls the reference anonymously and writes its first layer to a
// temp file named after the repository path with slashes replaced by
// underscores (spec §4.4).
func loadOCI(ctx context.Context, reference string, kind Kind) (Downloaded, error) {
	repo, err := remote.NewRepository(reference)
	if err != nil {
		return nil, fmt.Errorf("parse oci reference %q: %w", reference, err)
	}

	dir, err := os.MkdirTemp("", "wasmcell-oci-*")
	if err != nil {
		return nil, fmt.Errorf("create oci staging dir: %w", err)
	}

	store, err := oci.New(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create oci content store: %w", err)
	}

	desc, err := oras.Copy(ctx, repo, reference, store, reference, oras.DefaultCopyOptions)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("pull oci reference %q: %w", reference, err)
	}

	rc, err := store.Fetch(ctx, desc)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("fetch oci layer for %q: %w", reference, err)
	}
	defer rc.Close()

	filename := strings.ReplaceAll(repo.Reference.Repository, "/", "_") + kind.Extension
	dest := filepath.Join(dir, filename)
	f, err := os.Create(dest)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create oci staging file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write oci layer to %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return tempDownload{dir: dir, path: dest}, nil
}

// loadHTTPS GETs uri; status must be 2xx. Filename is the last path segment
// stripped of the kind's extension (spec §4.4).
func loadHTTPS(ctx context.Context, uri string, kind Kind, httpClient *http.Client) (Downloaded, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", uri, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: status %d: %s", uri, resp.StatusCode, body)
	}

	dir, err := os.MkdirTemp("", "wasmcell-https-*")
	if err != nil {
		return nil, fmt.Errorf("create https staging dir: %w", err)
	}

	base := filepath.Base(uri)
	base = strings.TrimSuffix(base, ".yaml")
	base = strings.TrimSuffix(base, ".yml")
	base = strings.TrimSuffix(base, ".wasm")
	dest := filepath.Join(dir, base+kind.Extension)

	f, err := os.Create(dest)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create https staging file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("stream %s to %s: %w", uri, dest, err)
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return tempDownload{dir: dir, path: dest}, nil
}
