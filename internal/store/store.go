// Package store persists chapter images under the data folder with a
// layout that sorts lexicographically in page order:
//
//	data_folder/<chapter-index>/<page-ordinal>.<ext>
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okarpenko/mangaua/internal/catalog"
	"github.com/okarpenko/mangaua/internal/ui"
)

// errNoRetry marks answers that repeating the request cannot change.
var errNoRetry = errors.New("not retryable")

var imageExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

type Store struct {
	client     *http.Client
	dataFolder string
	workers    int
	retries    int
	skipBroken bool
	log        interface {
		Debugf(string, ...any)
		Warnf(string, ...any)
	}
}

type Options struct {
	DataFolder string
	Workers    int
	Retries    int
	SkipBroken bool
}

func New(client *http.Client, opts Options, log interface {
	Debugf(string, ...any)
	Warnf(string, ...any)
}) *Store {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	return &Store{
		client:     client,
		dataFolder: opts.DataFolder,
		workers:    opts.Workers,
		retries:    opts.Retries,
		skipBroken: opts.SkipBroken,
		log:        log,
	}
}

func (s *Store) ChapterDir(index int) string {
	return filepath.Join(s.dataFolder, strconv.Itoa(index))
}

// PagePath builds the on-disk path for a page. Zero-padded ordinals keep
// lexical and page order identical.
func PagePath(dir string, ordinal int, imageURL string) string {
	return filepath.Join(dir, fmt.Sprintf("%03d.%s", ordinal, extFor(imageURL)))
}

func extFor(imageURL string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(imageURL), "."))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	if !imageExts[ext] {
		return "jpg"
	}

	return ext
}

// Result describes one downloaded chapter. Files are in page order with
// skipped pages absent.
type Result struct {
	Files   []string
	Bytes   int64
	Skipped []int // ordinals that failed permanently
}

// DownloadChapter materializes all pages of one chapter. Page ordinals come
// from catalog order, never from completion order, so the concurrent
// downloads cannot reorder the output.
func (s *Store) DownloadChapter(ctx context.Context, index int, pages []catalog.Page, ph *ui.ProgressHandle) (*Result, error) {
	dir := s.ChapterDir(index)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		done  int
		bytes int64
	)

	files := make([]string, len(pages))
	skipped := make([]int, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range pages {
		g.Go(func() error {
			path := PagePath(dir, p.Ordinal, p.URL)

			n, err := s.downloadWithRetry(gctx, p.URL, path)

			mu.Lock()
			defer mu.Unlock()

			done++
			bytes += n
			if ph != nil {
				ph.Update(done, bytes)
			}

			if err != nil {
				if !s.skipBroken {
					return fmt.Errorf("chapter %d page %d (%s): %w", index, p.Ordinal, p.URL, err)
				}

				s.log.Warnf("Skipping chapter %d page %d: %v", index, p.Ordinal, err)
				skipped = append(skipped, p.Ordinal)
				return nil
			}

			files[p.Ordinal-1] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ph != nil {
		ph.MarkDone()
	}

	ordered := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			ordered = append(ordered, f)
		}
	}

	return &Result{Files: ordered, Bytes: bytes, Skipped: skipped}, nil
}

func (s *Store) downloadWithRetry(ctx context.Context, url, path string) (int64, error) {
	var err error
	var n int64

	for attempt := 1; attempt <= s.retries; attempt++ {
		n, err = s.download(ctx, url, path)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, errNoRetry) {
			return 0, err
		}

		if attempt < s.retries {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return 0, err
}

func (s *Store) download(ctx context.Context, u, path string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return 0, fmt.Errorf("HTTP %d: %w", resp.StatusCode, errNoRetry)
		}
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != "" && !strings.HasPrefix(mt, "image/") {
			return 0, fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}

	s.log.Debugf("Downloaded %s (%s)", path, ui.Human(n))

	return n, nil
}
