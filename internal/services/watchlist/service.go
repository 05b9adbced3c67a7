// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package watchlist

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/models"
	"github.com/autobrr/seederbot/internal/services/grab"
)

var ErrInvalidPriority = errors.New("invalid priority")

// Grabber runs the acquisition for a single item.
type Grabber interface {
	Grab(ctx context.Context, req models.MediaRequest) (grab.Response, error)
}

type RetryObserver interface {
	ObserveWatchlistRetry(outcome string)
}

// Config controls the background retry of pending items.
type Config struct {
	RetryInterval time.Duration
	MaxAttempts   int
}

type AddRequest struct {
	Title    string
	Year     *int
	Priority models.WatchlistPriority
	Notes    string
}

type entry struct {
	item models.WatchlistItem
	seq  uint64
}

// Service is an in-memory watchlist. Items are lost on restart.
type Service struct {
	cfg      Config
	grabber  Grabber
	observer RetryObserver

	mu       sync.RWMutex
	items    map[string]*entry
	seq      uint64
	inFlight map[string]struct{}

	now   func() time.Time
	newID func() string
}

func NewService(cfg Config, grabber Grabber, observer RetryObserver) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{
		cfg:      cfg,
		grabber:  grabber,
		observer: observer,
		items:    make(map[string]*entry),
		inFlight: make(map[string]struct{}),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Add records the item as pending and immediately tries to acquire it. The
// returned item reflects the outcome; a failed acquisition leaves it pending.
func (s *Service) Add(ctx context.Context, req AddRequest) (models.WatchlistItem, bool, error) {
	if !req.Priority.Valid() {
		return models.WatchlistItem{}, false, ErrInvalidPriority
	}
	priority := req.Priority
	if priority == "" {
		priority = models.WatchlistPriorityNormal
	}

	item := models.WatchlistItem{
		ID:       s.newID(),
		Title:    strings.TrimSpace(req.Title),
		Year:     req.Year,
		Priority: priority,
		Notes:    req.Notes,
		Status:   models.WatchlistStatusPending,
		AddedAt:  s.now(),
	}

	s.mu.Lock()
	s.seq++
	s.items[item.ID] = &entry{item: item, seq: s.seq}
	s.inFlight[item.ID] = struct{}{}
	s.mu.Unlock()

	log.Info().
		Str("watchlistID", item.ID).
		Str("title", item.Title).
		Str("priority", string(priority)).
		Msg("Added to watchlist")

	ok := s.acquire(ctx, item)

	current, _ := s.Get(item.ID)
	if current.ID == "" {
		current = item
	}
	return current, ok, nil
}

// acquire runs the grab without holding the lock and records the outcome.
func (s *Service) acquire(ctx context.Context, item models.WatchlistItem) bool {
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, item.ID)
		s.mu.Unlock()
	}()

	req := models.MediaRequest{Title: item.Title}
	if item.Year != nil {
		req.Year = *item.Year
	}

	resp, err := s.grabber.Grab(ctx, req)
	success := err == nil && resp.Succeeded()

	lastError := ""
	switch {
	case err != nil:
		lastError = err.Error()
	case !success:
		lastError = resp.Message
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.items[item.ID]
	if !exists {
		return success
	}

	e.item.Attempts++
	if success {
		if e.item.Status == models.WatchlistStatusPending {
			e.item.Status = models.WatchlistStatusAvailable
		}
		acquired := s.now()
		e.item.AcquiredAt = &acquired
		e.item.LastError = ""
		log.Info().Str("watchlistID", item.ID).Str("title", item.Title).Msg("Movie acquisition successful")
	} else {
		e.item.LastError = lastError
		log.Warn().Str("watchlistID", item.ID).Str("title", item.Title).Str("error", lastError).Msg("Movie acquisition failed")
	}

	return success
}

// List returns items newest first. A positive limit caps the result; a
// non-empty query keeps only titles that fuzzily match it.
func (s *Service) List(limit int, query string) []models.WatchlistItem {
	query = strings.TrimSpace(query)

	s.mu.RLock()
	entries := make([]*entry, 0, len(s.items))
	for _, e := range s.items {
		if query != "" && !fuzzy.MatchNormalizedFold(query, e.item.Title) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].item.AddedAt.Equal(entries[j].item.AddedAt) {
			return entries[i].item.AddedAt.After(entries[j].item.AddedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]models.WatchlistItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	s.mu.RUnlock()

	return items
}

func (s *Service) Get(id string) (models.WatchlistItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok {
		return models.WatchlistItem{}, false
	}
	return e.item, true
}

func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	e, ok := s.items[id]
	var title string
	if ok {
		title = e.item.Title
		delete(s.items, id)
	}
	s.mu.Unlock()

	if ok {
		log.Info().Str("watchlistID", id).Str("title", title).Msg("Removed from watchlist")
	}
	return ok
}

func (s *Service) MarkWatched(id string) (models.WatchlistItem, bool) {
	s.mu.Lock()
	e, ok := s.items[id]
	var item models.WatchlistItem
	if ok {
		e.item.Status = models.WatchlistStatusWatched
		item = e.item
	}
	s.mu.Unlock()

	if !ok {
		return models.WatchlistItem{}, false
	}

	log.Info().Str("watchlistID", id).Str("title", item.Title).Msg("Marked as watched")
	return item, true
}

func (s *Service) Stats() models.WatchlistStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.WatchlistStats{Total: len(s.items)}
	for _, e := range s.items {
		switch e.item.Status {
		case models.WatchlistStatusPending:
			stats.Pending++
		case models.WatchlistStatusAvailable:
			stats.Available++
		case models.WatchlistStatusWatched:
			stats.Watched++
		}
	}
	return stats
}

// Start retries pending items every RetryInterval until ctx is done. A zero
// interval disables the loop.
func (s *Service) Start(ctx context.Context) {
	if s.cfg.RetryInterval <= 0 {
		log.Debug().Msg("watchlist: background retry disabled")
		return
	}
	go s.loop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RetryPending(ctx)
		}
	}
}

// RetryPending attempts acquisition for every pending item that is not already
// being acquired and has attempts left. High priority items go first.
func (s *Service) RetryPending(ctx context.Context) int {
	s.mu.Lock()
	var due []*entry
	for id, e := range s.items {
		if e.item.Status != models.WatchlistStatusPending || e.item.Attempts >= s.cfg.MaxAttempts {
			continue
		}
		if _, busy := s.inFlight[id]; busy {
			continue
		}
		due = append(due, e)
	}
	sort.Slice(due, func(i, j int) bool {
		pi, pj := priorityRank(due[i].item.Priority), priorityRank(due[j].item.Priority)
		if pi != pj {
			return pi > pj
		}
		return due[i].seq < due[j].seq
	})
	items := make([]models.WatchlistItem, len(due))
	for i, e := range due {
		items[i] = e.item
		s.inFlight[e.item.ID] = struct{}{}
	}
	s.mu.Unlock()

	if len(items) == 0 {
		return 0
	}

	log.Debug().Int("pending", len(items)).Msg("watchlist: retrying pending items")

	acquired := 0
	for i, item := range items {
		if ctx.Err() != nil {
			s.release(items[i:])
			break
		}
		outcome := "error"
		if s.acquire(ctx, item) {
			acquired++
			outcome = "success"
		}
		if s.observer != nil {
			s.observer.ObserveWatchlistRetry(outcome)
		}
	}

	return acquired
}

func (s *Service) release(items []models.WatchlistItem) {
	s.mu.Lock()
	for _, item := range items {
		delete(s.inFlight, item.ID)
	}
	s.mu.Unlock()
}

func priorityRank(p models.WatchlistPriority) int {
	switch p {
	case models.WatchlistPriorityHigh:
		return 2
	case models.WatchlistPriorityLow:
		return 0
	default:
		return 1
	}
}
