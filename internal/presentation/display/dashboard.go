package display

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tweetown/tweetown/internal/core/entity"
	"github.com/tweetown/tweetown/internal/core/player"
	"github.com/tweetown/tweetown/internal/core/scene"
	"github.com/tweetown/tweetown/internal/util"
)

const (
	fallbackWidth = 74
	minWidth      = 58
	maxWidth      = 100
)

// Frame carries everything one render needs, captured outside the renderer
// so Render never touches shared state.
type Frame struct {
	Snapshot scene.Snapshot
	Player   player.Status

	// Elapsed is the log offset of the last delivered event; LogSpan is the
	// offset of the final one.
	Elapsed time.Duration
	LogSpan time.Duration

	// Applied counts delivered events when tailing a live log. The playback
	// fields in Player are ignored in that mode.
	Applied int
	Follow  bool

	ShowHelp bool
	Message  string
}

// Dashboard renders the town as a single boxed frame per tick. Output,
// accent color, and width probing are injected so tests can render into a
// buffer at a fixed width.
type Dashboard struct {
	out    io.Writer
	accent string
	width  func() int
}

// NewDashboard builds a renderer writing to out. A nil out targets stdout,
// an empty accent falls back to cyan, and a nil width probes the terminal.
func NewDashboard(out io.Writer, accent string, width func() int) *Dashboard {
	if out == nil {
		out = os.Stdout
	}
	if accent == "" {
		accent = util.ColorCyan
	}
	if width == nil {
		width = terminalWidth
	}
	return &Dashboard{out: out, accent: accent, width: width}
}

// Render paints one frame, homing the cursor first and clearing whatever a
// previous taller frame left below. Everything is written in one call to
// keep partially drawn frames off the screen.
func (d *Dashboard) Render(f Frame) {
	w := d.width()
	if w < minWidth {
		w = minWidth
	}

	var lines []string
	if f.ShowHelp {
		lines = d.helpLines(w)
	} else {
		lines = d.frameLines(f, w)
	}

	var b strings.Builder
	b.WriteString(util.MoveCursorHome)
	for _, line := range lines {
		b.WriteString(line)
		// Wipe whatever a longer previous line left behind the new one.
		b.WriteString(util.ClearLineFromCursor)
		b.WriteString("\n")
	}
	b.WriteString(util.ClearToScreenEnd)
	fmt.Fprint(d.out, b.String())
}

func (d *Dashboard) frameLines(f Frame, w int) []string {
	s := f.Snapshot

	lines := []string{topBorder(w)}
	lines = append(lines, d.headerLine(f, w))
	lines = append(lines, separator(w))
	lines = append(lines, d.progressLine(f, w))
	lines = append(lines, separator(w))
	lines = append(lines, d.reviewPanel(s, w)...)
	lines = append(lines, separator(w))
	lines = append(lines, d.transitPanel(s, w)...)
	lines = append(lines, separator(w))
	lines = append(lines, d.sortingPanel(s, w)...)
	if len(s.Leaders) > 0 {
		lines = append(lines, separator(w))
		lines = append(lines, d.leaderPanel(s, w)...)
	}
	if len(s.Feed) > 0 {
		lines = append(lines, separator(w))
		lines = append(lines, d.feedPanel(s, w)...)
	}
	if s.Summary != nil {
		lines = append(lines, separator(w))
		lines = append(lines, d.summaryPanel(s, w)...)
	}
	lines = append(lines, bottomBorder(w))
	lines = append(lines, d.footerLine(f, w))
	return lines
}

func (d *Dashboard) headerLine(f Frame, w int) string {
	left := d.accent + util.ColorBold + "🚌 TWEETOWN" + util.ColorReset
	meta := f.Snapshot.Meta
	if meta.AnalyzerModel != "" || meta.ClassifierModel != "" {
		left += util.ColorDim + fmt.Sprintf("  reviewer %s · sorter %s",
			orDash(meta.AnalyzerModel), orDash(meta.ClassifierModel)) + util.ColorReset
	}
	return twoColumn(left, d.statusBadge(f), w)
}

func (d *Dashboard) statusBadge(f Frame) string {
	status := f.Snapshot.Meta.Status
	switch {
	case f.Follow:
		return util.ColorGreen + "📡 following" + util.ColorReset
	case f.Player.IsPaused:
		return util.ColorYellow + "⏸ paused" + util.ColorReset
	case status == scene.StatusDone:
		return d.accent + "🎉 " + status + util.ColorReset
	case f.Player.IsPlaying:
		return util.ColorGreen + "▶ " + status + util.ColorReset
	default:
		return util.ColorDim + "⏹ " + status + util.ColorReset
	}
}

func (d *Dashboard) progressLine(f Frame, w int) string {
	if f.Follow {
		content := fmt.Sprintf("%s● live%s  %s events applied  last offset %s",
			util.ColorGreen, util.ColorReset,
			util.FormatNumber(f.Applied), util.FormatClock(f.Elapsed))
		return boxLine(content, w)
	}

	st := f.Player
	barWidth := w - 44
	if barWidth < 12 {
		barWidth = 12
	}
	if barWidth > 30 {
		barWidth = 30
	}
	bar := d.accent + util.CreateProgressBar(st.Progress, barWidth) + util.ColorReset
	speed := util.ColorDim + util.FormatSpeed(st.Speed) + util.ColorReset

	content := fmt.Sprintf("%s %s  %d/%d  %s / %s  %s",
		bar, util.FormatPercent(st.Progress), st.CurrentIndex, st.TotalEvents,
		util.FormatClock(f.Elapsed), util.FormatClock(f.LogSpan), speed)
	if visibleWidth(content) > w-4 {
		content = fmt.Sprintf("%s %s  %s", bar, util.FormatPercent(st.Progress), speed)
	}
	return boxLine(content, w)
}

// reviewPanel shows the desk tallies plus the footpath queue. Boarded
// passengers move to the transit panel, so only queued, in-review, and
// still-visible rejected persons get a chip here.
func (d *Dashboard) reviewPanel(s scene.Snapshot, w int) []string {
	title := fmt.Sprintf("📋 Review Desk  %d/%d reviewed  %s✔ %d%s  %s✗ %d%s",
		s.Reviewed, s.Expected,
		util.ColorGreen, s.Passed, util.ColorReset,
		util.ColorRed, s.Rejected, util.ColorReset)
	lines := []string{boxLine(title, w)}

	var chips []string
	for _, p := range s.Persons {
		if !p.Visible {
			continue
		}
		switch p.State {
		case entity.StateQueued:
			chips = append(chips, util.ColorDim+"👤@"+p.Username+util.ColorReset)
		case entity.StateReviewing:
			chips = append(chips, util.ColorYellow+"🔍@"+p.Username+util.ColorReset)
		case entity.StateRejected:
			chips = append(chips, util.ColorRed+"✗@"+p.Username+util.ColorReset)
		}
	}
	if len(chips) == 0 {
		lines = append(lines, boxLine(util.ColorDim+"the footpath is empty"+util.ColorReset, w))
	} else {
		lines = append(lines, boxLine(joinChips(chips, w-4), w))
	}
	return lines
}

func (d *Dashboard) transitPanel(s scene.Snapshot, w int) []string {
	bus := s.Bus
	title := "🚌 Transit  " + busStateLabel(bus)
	lines := []string{boxLine(title, w)}
	lines = append(lines, boxLine(roadLine(bus, w-6), w))

	if len(bus.Seats) > 0 {
		chips := make([]string, 0, len(bus.Seats))
		for _, seat := range bus.Seats {
			chips = append(chips, util.ColorCyan+"@"+seat.Username+util.ColorReset)
		}
		lines = append(lines, boxLine("seats  "+joinChips(chips, w-11), w))
	}
	return lines
}

func busStateLabel(bus entity.BusView) string {
	switch bus.State {
	case entity.BusLoading:
		return fmt.Sprintf("boarding · %d aboard", bus.PassengerCount)
	case entity.BusDriving:
		return fmt.Sprintf("on the road · %d aboard", bus.PassengerCount)
	case entity.BusArrived:
		return "arrived downtown"
	default:
		return "waiting at the review stop"
	}
}

// roadLine draws the route with the bus positioned by its progress. The
// track length adapts to the frame width so the lerp stays smooth.
func roadLine(bus entity.BusView, width int) string {
	track := width - util.GetDisplayWidth("🚏🚌🌆")
	if track < 10 {
		track = 10
	}
	pos := int(bus.Progress * float64(track))
	if pos < 0 {
		pos = 0
	}
	if pos > track {
		pos = track
	}
	return "🚏" + strings.Repeat("─", pos) + "🚌" + strings.Repeat("─", track-pos) + "🌆"
}

func (d *Dashboard) sortingPanel(s scene.Snapshot, w int) []string {
	title := fmt.Sprintf("🌆 City  %d delivered", s.Delivered)
	if s.Fallbacks > 0 {
		title += fmt.Sprintf("  %s(%d rerouted)%s", util.ColorYellow, s.Fallbacks, util.ColorReset)
	}
	lines := []string{boxLine(title, w)}

	maxCount := 1
	labelWidth := 0
	for _, b := range s.Buildings {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		if lw := util.GetDisplayWidth(b.Label); lw > labelWidth {
			labelWidth = lw
		}
	}
	for _, b := range s.Buildings {
		bar := util.CreateProgressBar(float64(b.Count)/float64(maxCount), 14)
		row := fmt.Sprintf("%s %s %s %2d", buildingGlyph(b.Category),
			util.PadRight(b.Label, labelWidth), bar, b.Count)
		if b.Lit {
			row += " ✨"
		} else {
			row = util.ColorDim + row + util.ColorReset
		}
		lines = append(lines, boxLine(row, w))
	}
	return lines
}

func (d *Dashboard) leaderPanel(s scene.Snapshot, w int) []string {
	lines := []string{boxLine("🏆 Top Authors", w)}

	nameWidth := 8
	for _, r := range s.Leaders {
		if lw := util.GetDisplayWidth("@" + r.Username); lw > nameWidth {
			nameWidth = lw
		}
	}
	for i, r := range s.Leaders {
		row := fmt.Sprintf("%d. %s  %s%.1f%s avg  %s pass  ×%d",
			i+1, util.PadRight("@"+r.Username, nameWidth),
			d.accent, r.Average, util.ColorReset,
			util.FormatPercent(r.PassRate), r.Count)
		lines = append(lines, boxLine(row, w))
	}
	return lines
}

func (d *Dashboard) feedPanel(s scene.Snapshot, w int) []string {
	lines := []string{boxLine("📜 Feed", w)}
	for _, entry := range s.Feed {
		lines = append(lines, boxLine(util.ColorDim+util.TruncateText(entry, w-6)+util.ColorReset, w))
	}
	return lines
}

func (d *Dashboard) summaryPanel(s scene.Snapshot, w int) []string {
	sum := s.Summary
	glyph, statusColor := "🎉", util.ColorGreen
	if sum.Status != "success" {
		glyph, statusColor = "⚠", util.ColorYellow
	}
	lines := []string{boxLine(d.accent+util.ColorBold+glyph+" Run Summary"+util.ColorReset, w)}

	rejected := sum.TotalTweets - sum.PassedTweets
	if rejected < 0 {
		rejected = 0
	}
	lines = append(lines, boxLine(fmt.Sprintf("status %s%s%s · took %s",
		statusColor, sum.Status, util.ColorReset,
		util.FormatDuration(time.Duration(sum.DurationMS)*time.Millisecond)), w))
	lines = append(lines, boxLine(fmt.Sprintf("%d tweets · %s%d passed%s · %s%d rejected%s",
		sum.TotalTweets,
		util.ColorGreen, sum.PassedTweets, util.ColorReset,
		util.ColorRed, rejected, util.ColorReset), w))

	if len(sum.CategoryStats) > 0 {
		lines = append(lines, boxLine("filed  "+categoryRollup(sum.CategoryStats), w))
	}
	if len(s.Leaders) > 0 {
		top := s.Leaders[0]
		lines = append(lines, boxLine(fmt.Sprintf("top author @%s (%.1f avg)", top.Username, top.Average), w))
	}
	return lines
}

// categoryRollup flattens the per-category counts into one line, busiest
// bucket first with ties broken by name.
func categoryRollup(stats map[string]int) string {
	type kv struct {
		name  string
		count int
	}
	pairs := make([]kv, 0, len(stats))
	for name, count := range stats {
		pairs = append(pairs, kv{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s ×%d", p.name, p.count)
	}
	return strings.Join(parts, " · ")
}

func (d *Dashboard) footerLine(f Frame, w int) string {
	hints := "space pause · +/- speed · r replay · h help · q quit"
	if f.Follow {
		hints = "space pause screen · h help · q quit"
	}
	line := util.ColorDim + hints + util.ColorReset
	if f.Message != "" {
		line += "  " + d.accent + f.Message + util.ColorReset
	}
	return line
}

func (d *Dashboard) helpLines(w int) []string {
	return []string{
		topBorder(w),
		boxLine(d.accent+util.ColorBold+"🚌 TWEETOWN HELP"+util.ColorReset, w),
		separator(w),
		boxLine("space      pause or resume playback", w),
		boxLine("+ / =      play faster", w),
		boxLine("- / _      play slower", w),
		boxLine("r          replay the run from the first event", w),
		boxLine("h          toggle this help screen", w),
		boxLine("q / esc    quit", w),
		separator(w),
		boxLine(util.ColorDim+"Every fetched tweet queues at the review desk. Tweets"+util.ColorReset, w),
		boxLine(util.ColorDim+"that pass ride the bus downtown, where the sorter files"+util.ColorReset, w),
		boxLine(util.ColorDim+"each one into its category building and lights it up."+util.ColorReset, w),
		bottomBorder(w),
		util.ColorDim + "press h or esc to go back" + util.ColorReset,
	}
}

var buildingGlyphs = map[string]string{
	"news":     "📰",
	"research": "🔬",
	"product":  "📦",
	"tutorial": "📚",
	"opinion":  "💬",
	"tools":    "🔧",
}

func buildingGlyph(category string) string {
	if g, ok := buildingGlyphs[category]; ok {
		return g
	}
	return "🏢"
}

func topBorder(w int) string    { return "╭" + strings.Repeat("─", w-2) + "╮" }
func separator(w int) string    { return "├" + strings.Repeat("─", w-2) + "┤" }
func bottomBorder(w int) string { return "╰" + strings.Repeat("─", w-2) + "╯" }

// boxLine frames content between the side borders, padding by display width
// so every row of the box lines up regardless of color codes or emoji.
func boxLine(content string, w int) string {
	pad := w - 4 - visibleWidth(content)
	if pad < 0 {
		pad = 0
	}
	return "│ " + content + strings.Repeat(" ", pad) + " │"
}

func twoColumn(left, right string, w int) string {
	pad := w - 4 - visibleWidth(left) - visibleWidth(right)
	if pad < 1 {
		pad = 1
	}
	return "│ " + left + strings.Repeat(" ", pad) + right + " │"
}

// joinChips packs chips onto one line, collapsing the tail into a count
// once the next chip would no longer fit.
func joinChips(chips []string, maxWidth int) string {
	var b strings.Builder
	used := 0
	for i, chip := range chips {
		piece := chip
		if i > 0 {
			piece = "  " + chip
		}
		pw := visibleWidth(piece)
		if i > 0 && used+pw > maxWidth-8 {
			fmt.Fprintf(&b, "%s  +%d more%s", util.ColorDim, len(chips)-i, util.ColorReset)
			break
		}
		b.WriteString(piece)
		used += pw
	}
	return b.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// visibleWidth measures the on-screen width of s with ANSI escapes removed.
func visibleWidth(s string) int {
	return util.GetDisplayWidth(ansiPattern.ReplaceAllString(s, ""))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// terminalWidth probes stdout for the usable frame width, leaving a small
// margin and capping very wide terminals so panels stay readable.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	w -= 2
	if w < minWidth {
		return minWidth
	}
	if w > maxWidth {
		return maxWidth
	}
	return w
}
