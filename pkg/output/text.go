package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
)

func (f *formatter) formatText(results batch.Results) (string, error) {
	okMark := color.New(color.FgGreen)
	badMark := color.New(color.FgRed)
	heading := color.New(color.Bold)
	if !f.config.WithColors {
		okMark.DisableColor()
		badMark.DisableColor()
		heading.DisableColor()
	}

	var out strings.Builder

	if len(results.Success) > 0 {
		out.WriteString(heading.Sprintf("Explained (%d)\n", len(results.Success)))
		for _, s := range results.Success {
			fmt.Fprintf(&out, "%s %s: %s\n", okMark.Sprint("✔"), s.Item.ID, renderResult(s.Result))
		}
	}

	if len(results.Failed) > 0 {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(heading.Sprintf("Failed (%d)\n", len(results.Failed)))
		for _, fr := range results.Failed {
			fmt.Fprintf(&out, "%s %s: %s\n", badMark.Sprint("✘"), fr.Item.ID, fr.Error)
		}
	}

	if out.Len() == 0 {
		out.WriteString("No answers were analyzed.\n")
	}

	fmt.Fprintf(&out, "\n%d succeeded, %d failed\n", len(results.Success), len(results.Failed))
	return out.String(), nil
}

// renderResult prefers a result's own terminal rendering and falls
// back to plain formatting for opaque values.
func renderResult(result any) string {
	if s, ok := result.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", result)
}
