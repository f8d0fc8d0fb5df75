// Package display renders the tracked-show report: filters by status and
// formats one color-coded line per show.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"seasonwatch/models"
	"seasonwatch/utils/dateutil"
)

// ANSI color codes; empty strings when color is off.
const (
	green      = "\033[32m"
	red        = "\033[31m"
	lightGreen = "\033[1;32m"
	lightBlue  = "\033[1;34m"
	lightRed   = "\033[1;31m"
	reset      = "\033[0m"
)

const separator = "------------"

// Options configures one render. Padding is derived per call from the shows
// being printed, never shared state.
type Options struct {
	// AiringOnly restricts output to the actionable states: soon, airing,
	// new, last and unknown.
	AiringOnly bool
	Color      bool
}

var actionable = map[models.Status]bool{
	models.StatusSoon:    true,
	models.StatusAiring:  true,
	models.StatusNew:     true,
	models.StatusLast:    true,
	models.StatusUnknown: true,
}

// Render writes one line per show, in the given (title-sorted) order.
func Render(w io.Writer, shows []models.TrackedShow, opts Options) {
	padding := 0
	for _, ts := range shows {
		if opts.AiringOnly && !actionable[ts.Eval.Status] {
			continue
		}
		if len(ts.Show.Title) > padding {
			padding = len(ts.Show.Title)
		}
	}

	printed := false
	for _, ts := range shows {
		if opts.AiringOnly && !actionable[ts.Eval.Status] {
			continue
		}
		fmt.Fprintln(w, Line(ts, padding, opts.Color))
		fmt.Fprintln(w, separator)
		printed = true
	}
	if !printed {
		fmt.Fprintln(w, "Nothing to show.")
	}
}

// Line formats a single show for the report.
func Line(ts models.TrackedShow, padding int, color bool) string {
	show, eval := ts.Show, ts.Eval
	title := func(c string) string { return pad(colorize(show.Title, c, color), padding, show.Title) }

	switch eval.Status {
	case models.StatusAiring:
		return fmt.Sprintf("%s | S%02dE%s | %s",
			title(lightGreen), show.Season, episodeNumber(eval), dateutil.Weekday(show.Premiere))
	case models.StatusNew:
		return fmt.Sprintf("%s | S%02dE%s | %s %s",
			title(lightGreen), show.Season, episodeNumber(eval), dateutil.Weekday(show.Premiere),
			colorize("New episode!", lightBlue, color))
	case models.StatusLast:
		return fmt.Sprintf("%s | S%02dE%s | %s %s",
			title(lightGreen), show.Season, episodeNumber(eval), dateutil.Weekday(show.Premiere),
			colorize("Last episode!", lightRed, color))
	case models.StatusEnded:
		return fmt.Sprintf("%s | Season %d over, last episode: E%s",
			title(red), show.Season, episodeNumber(eval))
	case models.StatusDone:
		return fmt.Sprintf("%s | Show has ended", title(red))
	case models.StatusSoon:
		return fmt.Sprintf("%s | Season %d premieres on %s",
			title(green), show.Season, prettyDate(show.Premiere))
	default:
		return fmt.Sprintf("%s | No airing information", title(""))
	}
}

// episodeNumber renders the resolved episode, or a placeholder when the
// number could not be derived from the schedule data.
func episodeNumber(eval models.Evaluation) string {
	if !eval.EpisodeKnown {
		return "??"
	}
	return fmt.Sprintf("%02d", eval.Episode)
}

func prettyDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}

func colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + reset
}

// pad right-pads to the target width, counting the visible title rather than
// the escape codes around it.
func pad(rendered string, width int, visible string) string {
	if gap := width - len(visible); gap > 0 {
		return rendered + strings.Repeat(" ", gap)
	}
	return rendered
}
