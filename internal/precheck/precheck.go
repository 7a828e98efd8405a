// Package precheck decides, before query files are written, which survey
// regions actually contain catalog rows. Results are cached in a local
// sqlite database so repeated `aq make` runs skip the query service for
// regions already checked.
package precheck

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/esolhaug/aq/internal/sky"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RegionCount is one cached precheck result.
type RegionCount struct {
	Key       string `gorm:"primaryKey;size:64"`
	Rows      int64
	CheckedAt time.Time
}

// Open opens (creating if needed) the precheck cache database at path and
// migrates its schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("precheck: open cache %s: %w", path, err)
	}
	if err := db.AutoMigrate(&RegionCount{}); err != nil {
		return nil, fmt.Errorf("precheck: migrate cache: %w", err)
	}
	return db, nil
}

// Store reads and writes cached region counts.
type Store struct {
	db *gorm.DB
	mu sync.Mutex // serializes writes; sqlite dislikes concurrent writers
}

// NewStore wraps a cache database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the cached row count for a region key, if present.
func (s *Store) Get(key string) (rows int64, ok bool, err error) {
	var rc RegionCount
	res := s.db.First(&rc, "key = ?", key)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("precheck: cache get %s: %w", key, res.Error)
	}
	return rc.Rows, true, nil
}

// Put records a region's row count.
func (s *Store) Put(key string, rows int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := RegionCount{Key: key, Rows: rows, CheckedAt: time.Now()}
	if err := s.db.Save(&rc).Error; err != nil {
		return fmt.Errorf("precheck: cache put %s: %w", key, err)
	}
	return nil
}

// CountFunc asks the query service how many rows a region holds.
type CountFunc func(ctx context.Context, r sky.Region) (int64, error)

// Runner prechecks regions through a CountFunc with bounded parallelism,
// consulting and feeding the cache.
type Runner struct {
	Store   *Store
	Count   CountFunc
	Workers int
}

// HasData returns, for each region, whether it holds any rows, keyed by
// region name. A failed count is reported as a warning and treated as
// "has data" so a flaky service never silently drops survey coverage; the
// failure is not cached.
func (r *Runner) HasData(ctx context.Context, regions []sky.Region) (map[string]bool, error) {
	result := make(map[string]bool, len(regions))
	var (
		mu      sync.Mutex
		misses  []sky.Region
		cached  int
	)

	for _, reg := range regions {
		rows, ok, err := r.Store.Get(reg.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			result[reg.Name()] = rows > 0
			cached++
			continue
		}
		misses = append(misses, reg)
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, reg := range misses {
		reg := reg
		g.Go(func() error {
			rows, err := r.Count(gctx, reg)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("precheck: %s: %v (keeping region)", reg.Name(), err)
				mu.Lock()
				result[reg.Name()] = true
				mu.Unlock()
				return nil
			}
			if err := r.Store.Put(reg.Name(), rows); err != nil {
				log.Printf("precheck: %v", err)
			}
			mu.Lock()
			result[reg.Name()] = rows > 0
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(misses) > 0 || cached > 0 {
		log.Printf("precheck: %d checked, %d cached", len(misses), cached)
	}
	return result, nil
}

// ParseCount extracts the row count from a COUNT(*) query's CSV response
// (a header line followed by one value line).
func ParseCount(body string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	var candidate string
	switch {
	case len(lines) >= 2:
		candidate = strings.TrimSpace(strings.Split(lines[1], ",")[0])
	case len(lines) == 1 && lines[0] != "":
		candidate = strings.TrimSpace(strings.Split(lines[0], ",")[0])
	default:
		return 0, fmt.Errorf("precheck: empty count response")
	}
	n, err := strconv.ParseFloat(candidate, 64)
	if err != nil {
		return 0, fmt.Errorf("precheck: unparsable count %q", candidate)
	}
	return int64(n), nil
}
