package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"seasonwatch/config"
	"seasonwatch/models"
	"seasonwatch/services/display"
	"seasonwatch/services/history"
	"seasonwatch/services/metadata"
	"seasonwatch/services/torrents"
	"seasonwatch/services/tracker"
	"seasonwatch/utils/dateutil"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	showsPath := flag.String("shows", "", "path to the show list file (one title per line)")
	download := flag.Bool("download", false, "offer torrent downloads for new and final episodes")
	delay := flag.Bool("delay", false, "shift air dates one day forward for late-release timezones")
	airingOnly := flag.Bool("airing", false, "only print shows that are airing or about to")
	refresh := flag.Bool("refresh", false, "re-fetch metadata even when the cached facts are current")
	redownload := flag.Bool("redownload", false, "offer episodes again even when already grabbed")
	dateStr := flag.String("date", "", "evaluate statuses as of this date (YYYY-MM-DD) instead of today")
	configPath := flag.String("config", "", "path to the settings file")
	flag.Parse()

	if *showsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seasonwatch -shows <file> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	settings, err := config.NewManager(cfgPath).Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Logs go to stderr (and the rotating file when configured); stdout is
	// reserved for the report itself.
	log.SetOutput(os.Stderr)
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
		}
	}

	today := time.Time{}
	if *dateStr != "" {
		d, err := dateutil.Parse(*dateStr)
		if err != nil {
			log.Fatalf("invalid -date %q: %v", *dateStr, err)
		}
		today = d
	}

	resolver := metadata.NewService(settings.Metadata.BaseURL,
		time.Duration(settings.Metadata.TimeoutSeconds)*time.Second)
	trk := tracker.NewService(afero.NewOsFs(), settings.Cache.Directory, resolver)

	ctx := context.Background()
	result, err := trk.Run(ctx, tracker.RunOptions{
		ListPath: *showsPath,
		Today:    today,
		Delay:    *delay || settings.Display.Delay,
		Refresh:  *refresh,
	})
	if err != nil {
		log.Fatalf("tracking pass failed: %v", err)
	}

	display.Render(os.Stdout, result.Shows, display.Options{
		AiringOnly: *airingOnly || settings.Display.AiringOnly,
		Color:      colorEnabled(os.Stdout),
	})

	if *download {
		if err := runDownloads(ctx, settings, result.Shows, *redownload); err != nil {
			log.Fatalf("download phase failed: %v", err)
		}
	}
}

// colorEnabled turns escape codes off when output is piped or NO_COLOR is set.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// runDownloads walks the shows that just aired an episode and offers their
// torrent candidates one show at a time.
func runDownloads(ctx context.Context, settings config.Settings, shows []models.TrackedShow, redownload bool) error {
	store, err := history.Open(settings.History.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := torrents.NewService(settings.Torrents.BaseURL, settings.Torrents.MaxResults, nil)
	stdin := bufio.NewScanner(os.Stdin)

	for _, ts := range shows {
		st := ts.Eval.Status
		if st != models.StatusNew && st != models.StatusLast {
			continue
		}
		if !ts.Eval.EpisodeKnown {
			log.Printf("[download] skipping %q, episode number unresolved", ts.Show.Title)
			continue
		}
		title, season, episode := ts.Show.Title, ts.Show.Season, ts.Eval.Episode

		if redownload {
			if err := store.Forget(ctx, title, season, episode); err != nil {
				return err
			}
		} else {
			seen, err := store.Seen(ctx, title, season, episode)
			if err != nil {
				return err
			}
			if seen {
				log.Printf("[download] %q S%02dE%02d already grabbed, skipping", title, season, episode)
				continue
			}
		}

		candidates, err := svc.SearchEpisode(ctx, title, season, episode)
		if err != nil {
			log.Printf("[download] search failed for %q: %v", title, err)
			continue
		}
		if len(candidates) == 0 {
			fmt.Printf("No torrents found for '%s S%02dE%02d'\n", title, season, episode)
			continue
		}

		choice := pickCandidate(stdin, title, season, episode, candidates)
		if choice == nil {
			continue
		}

		payload, err := svc.Download(ctx, *choice)
		if err != nil {
			log.Printf("[download] fetch failed for %q: %v", choice.Title, err)
			continue
		}
		filename := fmt.Sprintf("%s.torrent", choice.Title)
		if err := os.WriteFile(filename, payload, 0o644); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", filename)
		if err := store.Record(ctx, title, season, episode); err != nil {
			return err
		}
	}
	return nil
}

// pickCandidate prints the numbered candidate list and reads the user's
// choice. Zero, a blank line or anything unparsable skips the show.
func pickCandidate(stdin *bufio.Scanner, title string, season, episode int, candidates []models.Candidate) *models.Candidate {
	fmt.Printf("\nTorrents for '%s S%02dE%02d':\n", title, season, episode)
	for i, c := range candidates {
		fmt.Printf("  %d) %s (%d seeds)\n", i+1, c.Title, c.Seeds)
	}
	fmt.Print("Pick a torrent (0 to skip): ")

	if !stdin.Scan() {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(stdin.Text()))
	if err != nil || n < 1 || n > len(candidates) {
		return nil
	}
	return &candidates[n-1]
}
