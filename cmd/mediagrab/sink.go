package main

import (
	"fmt"
	"sync"

	"mediagrab/pkg/events"
	"mediagrab/pkg/media"
)

// consoleSink prints queue and discovery events as plain lines. Progress is
// throttled to 10% steps per job to keep the output readable.
type consoleSink struct {
	mu       sync.Mutex
	lastPct  map[string]int
	quiet    bool
	short    map[string]string
	shortSeq int
}

func newConsoleSink(quiet bool) *consoleSink {
	return &consoleSink{
		lastPct: make(map[string]int),
		short:   make(map[string]string),
		quiet:   quiet,
	}
}

// label maps long job ids to small stable display names.
func (s *consoleSink) label(jobID string) string {
	if l, ok := s.short[jobID]; ok {
		return l
	}
	s.shortSeq++
	l := fmt.Sprintf("#%d", s.shortSeq)
	s.short[jobID] = l
	return l
}

func (s *consoleSink) Status(jobID, message string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("[%s] %s\n", s.label(jobID), message)
}

func (s *consoleSink) Progress(jobID string, percent int) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if percent/10 <= s.lastPct[jobID]/10 && percent != 100 {
		return
	}
	s.lastPct[jobID] = percent
	fmt.Printf("[%s] %d%%\n", s.label(jobID), percent)
}

func (s *consoleSink) Finished(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		fmt.Printf("[%s] failed: %v\n", s.label(jobID), err)
		return
	}
	if !s.quiet {
		fmt.Printf("[%s] done\n", s.label(jobID))
	}
}

func (s *consoleSink) ItemFound(item media.Item) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	title := item.Title
	if title == "" {
		title = item.URL
	}
	fmt.Printf("  found [%s/%s] %s\n", item.Platform, item.Kind, title)
}

var _ events.Sink = (*consoleSink)(nil)
