package io

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klothoplatform/spa-stack/pkg/logging"
	"go.uber.org/zap"
)

type (
	// FileRef is a lightweight representation of a file, deferring reading its contents until `WriteTo` is called.
	FileRef struct {
		FPath   string
		RootDir string
	}

	// NonOverwritable files are only written if `Overwrite` reports true for the existing file at the same path.
	NonOverwritable interface {
		Overwrite(existing *os.File) bool
	}
)

func (r *FileRef) Clone() File {
	nr := *r
	return &nr
}

func (r *FileRef) Path() string {
	return r.FPath
}

func (r *FileRef) WriteTo(w io.Writer) (int64, error) {
	f, err := os.Open(filepath.Join(r.RootDir, r.FPath))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// OutputTo writes every file under `dest`, creating directories as needed. Files are written concurrently;
// all failures are reported together.
func OutputTo(log *zap.Logger, files []File, dest string) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
		written = make(map[string]int64)
	)
	for idx := range files {
		wg.Add(1)
		go func(f File) {
			defer wg.Done()
			n, err := outputFile(f, dest)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			written[f.Path()] = n
		}(files[idx])
	}
	wg.Wait()

	paths := make([]string, 0, len(written))
	for p := range written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		log.Debug("Wrote file", logging.PathField(filepath.Join(dest, p)), zap.Int64("bytes", written[p]))
	}
	return errors.Join(errs...)
}

func outputFile(f File, dest string) (int64, error) {
	path := filepath.Join(dest, f.Path())
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return 0, err
	}
	file, err := os.OpenFile(path, os.O_RDWR, 0666)
	if os.IsNotExist(err) {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0666)
	} else if err == nil {
		if ovr, ok := f.(NonOverwritable); ok && !ovr.Overwrite(file) {
			file.Close()
			return 0, nil
		}
		err = file.Truncate(0)
	}
	if err != nil {
		return 0, err
	}
	defer file.Close()

	n, err := f.WriteTo(file)
	if err != nil {
		return n, &os.PathError{Op: "write", Path: path, Err: err}
	}
	return n, nil
}
