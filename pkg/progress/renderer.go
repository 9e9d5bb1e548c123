package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
)

type renderer interface {
	render(status batch.Status, message string, failed bool, elapsed time.Duration) string
}

type barRenderer struct {
	width   int
	noColor bool
}

func (r *barRenderer) render(status batch.Status, message string, failed bool, elapsed time.Duration) string {
	var out strings.Builder

	// Reserve room for counts and percentage around the bar itself.
	barWidth := r.width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	terminal := status.Completed + status.Failed
	var fraction float64
	if status.Total > 0 {
		fraction = float64(terminal) / float64(status.Total)
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(float64(barWidth) * fraction)
	if filled > barWidth {
		filled = barWidth
	}

	fill := color.New(color.FgGreen)
	if failed {
		fill = color.New(color.FgRed)
	}
	if r.noColor {
		fill.DisableColor()
	}

	out.WriteString("[")
	out.WriteString(fill.Sprint(strings.Repeat("=", filled)))
	if filled < barWidth {
		out.WriteString(">")
		out.WriteString(strings.Repeat(" ", barWidth-filled-1))
	}
	out.WriteString("]")

	fmt.Fprintf(&out, " %3.0f%% %d/%d", fraction*100, terminal, status.Total)
	if status.Active > 0 {
		fmt.Fprintf(&out, " (%d active)", status.Active)
	}
	if status.Failed > 0 {
		failures := color.New(color.FgRed)
		if r.noColor {
			failures.DisableColor()
		}
		out.WriteString(failures.Sprintf(" %d failed", status.Failed))
	}

	if message != "" {
		fmt.Fprintf(&out, " %s", message)
	}

	return out.String()
}

type plainRenderer struct {
	noColor bool
}

func (r *plainRenderer) render(status batch.Status, message string, failed bool, elapsed time.Duration) string {
	label := color.New(color.FgCyan)
	if failed {
		label = color.New(color.FgRed)
	}
	failures := color.New(color.FgRed)
	if r.noColor {
		label.DisableColor()
		failures.DisableColor()
	}

	var out strings.Builder
	out.WriteString(label.Sprintf("%s pending=%d active=%d completed=%d",
		message, status.Pending, status.Active, status.Completed))

	// Failures stand out even while the rest of the line is calm.
	failedCount := fmt.Sprintf(" failed=%d", status.Failed)
	if status.Failed > 0 {
		out.WriteString(failures.Sprint(failedCount))
	} else {
		out.WriteString(label.Sprint(failedCount))
	}

	out.WriteString(label.Sprintf(" elapsed=%s", elapsed.Round(time.Second)))
	return out.String()
}
