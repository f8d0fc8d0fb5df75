package tracker

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"seasonwatch/models"
	"seasonwatch/utils/dateutil"
)

// ErrCacheCorrupt marks a cache entry that failed to parse. The pipeline
// recovers by treating the pass as a first run; it never aborts on this.
var ErrCacheCorrupt = errors.New("cache entry corrupt")

// Fingerprint hashes the raw byte content of the show list. The cache is
// keyed by content, not path: editing the list invalidates the entry, and
// two identical lists share one.
func Fingerprint(fs afero.Fs, listPath string) (string, error) {
	data, err := afero.ReadFile(fs, listPath)
	if err != nil {
		return "", fmt.Errorf("read show list: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// readShowList parses the list file: one title per line, whitespace trimmed,
// blank lines ignored.
func readShowList(fs afero.Fs, listPath string) ([]string, error) {
	f, err := fs.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open show list: %w", err)
	}
	defer f.Close()

	var titles []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		title := strings.TrimSpace(sc.Text())
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read show list: %w", err)
	}
	return titles, nil
}

func (s *Service) cachePath(fingerprint string) string {
	return filepath.Join(s.cacheDir, fingerprint+".json")
}

// loadCache reads and hydrates the cache entry for a fingerprint. A missing
// entry is reported as afero's not-exist error; unparseable content as
// ErrCacheCorrupt.
func (s *Service) loadCache(fingerprint string, delay bool) ([]models.Show, error) {
	data, err := afero.ReadFile(s.fs, s.cachePath(fingerprint))
	if err != nil {
		return nil, err
	}
	var records []models.CacheRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	shows := make([]models.Show, 0, len(records))
	for _, rec := range records {
		shows = append(shows, hydrate(rec, delay))
	}
	return shows, nil
}

// persist rewrites the cache entry wholesale. The write goes through a temp
// file and rename so a crashed pass never leaves a truncated entry behind.
func (s *Service) persist(shows []models.Show, fingerprint string, delay bool) error {
	if err := s.fs.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	records := make([]models.CacheRecord, 0, len(shows))
	for _, show := range shows {
		records = append(records, dump(show, delay))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	path := s.cachePath(fingerprint)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// hydrate turns a stored record into live facts, applying the airdate delay.
// Malformed optional dates degrade to unknown instead of failing the load.
func hydrate(rec models.CacheRecord, delay bool) models.Show {
	show := models.Show{Title: rec.Title, Season: rec.Season}
	if d, err := dateutil.Parse(rec.Premiere); err == nil {
		show.Premiere = dateutil.ApplyDelay(d, delay)
	}
	if d, err := dateutil.Parse(rec.End); err == nil {
		show.End = dateutil.ApplyDelay(d, delay)
	}
	if len(rec.Episodes) > 0 {
		show.Episodes = make(map[int]time.Time, len(rec.Episodes))
		for num, ds := range rec.Episodes {
			n, err := strconv.Atoi(num)
			if err != nil || n < 1 {
				continue
			}
			d, err := dateutil.Parse(ds)
			if err != nil {
				// A stored episode with a bad date gets the end
				// date, the same placeholder used at fetch time.
				show.Episodes[n] = show.End
				continue
			}
			show.Episodes[n] = dateutil.ApplyDelay(d, delay)
		}
	}
	return show
}

// dump is the inverse of hydrate; stored dates are always delay-free.
func dump(show models.Show, delay bool) models.CacheRecord {
	rec := models.CacheRecord{
		Title:    show.Title,
		Season:   show.Season,
		Episodes: map[string]string{},
	}
	if !show.Premiere.IsZero() {
		rec.Premiere = dateutil.Format(dateutil.RemoveDelay(show.Premiere, delay))
	}
	if !show.End.IsZero() {
		rec.End = dateutil.Format(dateutil.RemoveDelay(show.End, delay))
	}
	nums := make([]int, 0, len(show.Episodes))
	for n := range show.Episodes {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		d := show.Episodes[n]
		if d.IsZero() {
			rec.Episodes[strconv.Itoa(n)] = ""
			continue
		}
		rec.Episodes[strconv.Itoa(n)] = dateutil.Format(dateutil.RemoveDelay(d, delay))
	}
	return rec
}
