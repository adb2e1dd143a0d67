package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	tag   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		tag:   NewStyle(t),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// RenderGenres writes the playlist's genres and the tracks that contributed them.
func RenderGenres(w io.Writer, result *models.PipelineResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", styles.title.Render(result.PlaylistName))
	fmt.Fprintf(&b, "%s\n\n", styles.help.Render(fmt.Sprintf("%d tracks, %d with genres, %d unavailable",
		len(result.Tracks), len(result.ReadTrackNames), result.Skipped)))

	if len(result.Genres) == 0 {
		fmt.Fprintf(&b, "%s\n", styles.warn.Render("No genre tags found"))
	}
	for _, g := range result.Genres {
		fmt.Fprintf(&b, "  %s\n", styles.tag.Render(g))
	}

	renderFailed(&b, result.Failed)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderFilter writes every resolved track, marking those matching requested.
func RenderFilter(w io.Writer, result *models.PipelineResult, requested []string) error {
	var b strings.Builder

	results := genres.Filter(result.Tracks, requested)
	matched := len(genres.Matching(results))

	fmt.Fprintf(&b, "%s\n", styles.title.Render(result.PlaylistName))
	fmt.Fprintf(&b, "%s\n\n", styles.help.Render(fmt.Sprintf("%d of %d tracks match %s",
		matched, len(result.Tracks), strings.Join(requested, ", "))))

	for i, r := range results {
		track := result.Tracks[i]
		mark := styles.help.Render("·")
		if r.Matched {
			mark = styles.ok.Render("✓")
		}
		tags := styles.help.Render("no genres")
		if track.HasGenres() {
			tags = styles.tag.Render(strings.Join(track.Genres, ", "))
		}
		fmt.Fprintf(&b, "%s %s - %s %s\n", mark, strings.Join(track.ArtistNames, ", "), track.Name, tags)
	}

	renderFailed(&b, result.Failed)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJobs writes the filter job history, newest first as given.
func RenderJobs(w io.Writer, jobs []*models.FilterJob) error {
	var b strings.Builder

	if len(jobs) == 0 {
		fmt.Fprintf(&b, "%s\n", styles.help.Render("No filter jobs recorded"))
	}

	for _, job := range jobs {
		status := styles.ok.Render(string(job.Status))
		if job.Status == models.JobFailed {
			status = styles.err.Render(string(job.Status))
		}

		fmt.Fprintf(&b, "#%d %s %s\n", job.Sequence(), styles.title.Render(job.PlaylistName), status)
		fmt.Fprintf(&b, "   %s → %s  [%s] %d/%d tracks via %s\n",
			job.SourcePlaylistID,
			orDash(job.CreatedPlaylistID),
			job.GenresString(),
			job.MatchedTracks,
			job.TotalTracks,
			job.Strategy,
		)
		if job.Error != "" {
			fmt.Fprintf(&b, "   %s\n", styles.err.Render(job.Error))
		}
		fmt.Fprintf(&b, "   %s\n", styles.help.Render(job.CreatedAt().Local().Format("2006-01-02 15:04")))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderFailed(b *strings.Builder, failed []models.FailedTrack) {
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", styles.warn.Render(fmt.Sprintf("%d tracks could not be resolved:", len(failed))))
	for _, f := range failed {
		fmt.Fprintf(b, "  %s %s\n", styles.err.Render(f.TrackID), f.Error)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
