package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alitto/pond"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate mockgen -source=./assets.go --destination=../spa/assets_mock_test.go --package=spa

type (
	// Asset is a directory staged for upload. Its Hash covers the relative path and content of every included
	// file, so it only changes when what would be uploaded changes.
	Asset struct {
		Dir   string
		Hash  string
		Files []string
	}

	Stager interface {
		Stage(ctx context.Context, dir string, excludes []string) (*Asset, error)
	}

	// DirStager stages local directories. Files are hashed concurrently by up to Workers goroutines.
	DirStager struct {
		Workers int
	}
)

// Key is the object key the asset is published under.
func (a *Asset) Key() string {
	return a.Hash + ".zip"
}

// DefaultExcludes are never uploaded.
var DefaultExcludes = []string{"**/.DS_Store", "**/.git/**"}

type excludeMatcher struct {
	patterns []string
	err      error
}

func (m *excludeMatcher) Matches(p string) bool {
	if m.err != nil {
		return false
	}
	// doublestar over filepath.Match for '**' support
	for _, pattern := range m.patterns {
		var excluded bool
		excluded, m.err = doublestar.PathMatch(pattern, p)
		if m.err != nil {
			return false
		}
		if excluded {
			return true
		}
	}
	return false
}

func (s DirStager) Stage(ctx context.Context, dir string, excludes []string) (*Asset, error) {
	log := logging.GetLogger(ctx).Named("assets")

	info, err := os.Stat(dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not stage assets")
	}
	if !info.IsDir() {
		return nil, pkgerrors.Errorf("could not stage assets: %s is not a directory", dir)
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, pkgerrors.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	matcher := &excludeMatcher{patterns: append(append([]string{}, DefaultExcludes...), excludes...)}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matcher.Matches(rel) {
			log.Debug("Excluding asset", logging.PathField(rel))
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err == nil {
		err = matcher.err
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not list assets in %s", dir)
	}
	if len(files) == 0 {
		return nil, pkgerrors.Errorf("no assets to stage in %s", dir)
	}
	sort.Strings(files)

	sums, err := s.hashFiles(ctx, dir, files)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	for _, f := range files {
		_, _ = io.WriteString(h, f)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, sums[f])
		_, _ = h.Write([]byte{'\n'})
	}
	asset := &Asset{Dir: dir, Hash: hex.EncodeToString(h.Sum(nil)), Files: files}
	log.Info("Staged assets", logging.PathField(dir), zap.Int("files", len(files)), zap.String("hash", asset.Hash))
	return asset, nil
}

func (s DirStager) hashFiles(ctx context.Context, dir string, files []string) (map[string]string, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = 8
	}
	pool := pond.New(workers, len(files), pond.Context(ctx))

	var (
		mu   sync.Mutex
		sums = make(map[string]string, len(files))
		errs error
	)
	for _, f := range files {
		f := f
		pool.Submit(func() {
			sum, err := hashFile(filepath.Join(dir, filepath.FromSlash(f)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = errors.Join(errs, pkgerrors.Wrapf(err, "could not hash %s", f))
				return
			}
			sums[f] = sum
		})
	}
	pool.StopAndWait()
	if errs != nil {
		return nil, errs
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

func hashFile(path string) (string, error) {
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
