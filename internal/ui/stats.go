package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Stats accumulates run totals across concurrently downloaded chapters.
type Stats struct {
	Chapters atomic.Int64
	Pages    atomic.Int64
	Bytes    atomic.Int64

	mu              sync.Mutex
	skippedPages    []string
	skippedChapters []string
}

func (s *Stats) SkipPage(desc string) {
	s.mu.Lock()
	s.skippedPages = append(s.skippedPages, desc)
	s.mu.Unlock()
}

func (s *Stats) SkipChapter(desc string) {
	s.mu.Lock()
	s.skippedChapters = append(s.skippedChapters, desc)
	s.mu.Unlock()
}

func (s *Stats) Skipped() (pages, chapters []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.skippedPages...), append([]string(nil), s.skippedChapters...)
}

func (s *Stats) Partial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.skippedPages) > 0 || len(s.skippedChapters) > 0
}

func Human(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
