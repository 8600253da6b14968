package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/canonical/craft-parts-go/internal/checksum"
)

// Tar is an illustrative source handler for .tar / .tar.gz archives,
// fetched over HTTP(S) or read from a local path. Before unpacking it
// verifies an optional checksum in "algo/hex" form (spec §4.4).
//
// This is deliberately thin: it has no support for .zip, .deb, or general
// compression formats — those remain out of scope (spec §1).
type Tar struct {
	// HTTPClient is used for http(s):// locations; defaults to
	// http.DefaultClient when nil.
	HTTPClient *http.Client
}

var _ Handler = &Tar{}

// TarTypeKey is the explicit source-type this handler registers under.
const TarTypeKey = "tar"

// TarPattern matches source strings ending in a recognized tar extension,
// for pattern auto-detection (spec §4.4).
var TarPattern = regexp.MustCompile(`\.(tar|tar\.gz|tgz)$`)

func (t *Tar) client() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

func (t *Tar) Pull(ctx context.Context, dest string, ref Refinement) error {
	data, err := t.fetch(ctx, ref.Location)
	if err != nil {
		return fmt.Errorf("tar source %q: %w", ref.Location, err)
	}

	if ref.Checksum != "" {
		digest, err := checksum.Parse(ref.Checksum)
		if err != nil {
			return err
		}
		if err := digest.Verify(data); err != nil {
			return err
		}
	}

	return unpackTar(data, dest, ref.Subdir)
}

func (t *Tar) fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := t.client().Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, location)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(location)
}

func unpackTar(data []byte, dest, subdir string) error {
	var r io.Reader = bytes.NewReader(data)
	if looksGzip(data) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		name := hdr.Name
		if subdir != "" {
			prefix := strings.TrimSuffix(subdir, "/") + "/"
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			name = strings.TrimPrefix(name, prefix)
			if name == "" {
				continue
			}
		}
		target := filepath.Join(dest, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			modTime := hdr.ModTime
			if modTime.IsZero() {
				modTime = time.Now()
			}
			_ = os.Chtimes(target, modTime, modTime)
		}
	}
	return nil
}

func looksGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
