package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/backmassage/beatcut/internal/timeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hardStyle   = cellStyle.Foreground(lipgloss.Color("#FFA500"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// PlanTable renders one row per boundary of rp. At most limit rows are
// shown (0 for all); a trailing line counts the rest.
func PlanTable(rp *timeline.RenderPlan, limit int) string {
	if rp.Empty() {
		return titleStyle.Render("Empty plan")
	}

	rows := rp.Boundaries
	hidden := 0
	if limit > 0 && len(rows) > limit {
		hidden = len(rows) - limit
		rows = rows[:limit]
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("#", "ON BEAT", "SEGMENT", "KIND", "XFADE", "OFFSET", "ACCENT")
	for _, b := range rows {
		seg := rp.Segments[b.Index]
		xfade, offset, accent := "-", "-", "-"
		if b.Kind == timeline.KindCrossfade {
			xfade = FormatFrames(b.Frames, rp.FPS)
			offset = FormatSeconds(b.Offset)
		} else if b.Fallback != timeline.EffectNone {
			accent = fmt.Sprintf("%s %s", b.Fallback, FormatSeconds(b.FallbackDuration))
		}
		t.Row(
			strconv.Itoa(b.Index+1),
			FormatSeconds(b.OnBeat),
			FormatFrames(seg.Frames, rp.FPS),
			string(b.Kind),
			xfade,
			offset,
			accent,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(rows) && col == 3 && rows[row].Kind == timeline.KindHardcut {
			return hardStyle
		}
		return cellStyle
	})

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(PlanHeadline(rp)))
	sb.WriteString("\n")
	sb.WriteString(t.Render())
	if hidden > 0 {
		fmt.Fprintf(&sb, "\n... %d more boundaries", hidden)
	}
	return sb.String()
}

// PlanHeadline is the one-line summary logged after planning.
func PlanHeadline(rp *timeline.RenderPlan) string {
	if rp.Empty() {
		return "0 segments"
	}
	return fmt.Sprintf("%d segments, %d crossfades, %d hard cuts, %s at %d fps",
		len(rp.Segments), rp.Crossfades(), len(rp.Boundaries)-rp.Crossfades(),
		FormatSeconds(rp.TotalDuration), rp.FPS)
}
