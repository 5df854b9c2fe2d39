package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/answer"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
)

// snippetLen caps how much chunk content a result row shows.
const snippetLen = 200

// Renderer writes search results and answers to a writer.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer creates a renderer for w, choosing colored or plain styles
// by TTY detection and NO_COLOR.
func NewRenderer(w io.Writer) *Renderer {
	styles := PlainStyles()
	if IsTTY(w) && !noColor() {
		styles = DefaultStyles()
	}
	return &Renderer{w: w, styles: styles}
}

// NewRendererWithStyles creates a renderer with explicit styles.
func NewRendererWithStyles(w io.Writer, styles Styles) *Renderer {
	return &Renderer{w: w, styles: styles}
}

// RenderResults writes the fused result list.
func (r *Renderer) RenderResults(result *retrieval.FusionResult) {
	if result.FinalCount == 0 {
		fmt.Fprintln(r.w, r.styles.Dim.Render("No results."))
		return
	}

	header := fmt.Sprintf("%d results", result.FinalCount)
	if len(result.Strategies) > 0 {
		header += fmt.Sprintf("  [%s]", strings.Join(result.Strategies, ", "))
	}
	if result.RerankingApplied {
		header += "  (reranked)"
	}
	fmt.Fprintln(r.w, r.styles.Header.Render(header))
	fmt.Fprintln(r.w)

	for i, res := range result.Results {
		r.renderResult(i+1, res)
	}
}

func (r *Renderer) renderResult(rank int, res *retrieval.FusedResult) {
	score := res.DisplayScore()
	scoreStyle := r.styles.Score
	if score >= 0.7 {
		scoreStyle = r.styles.HighScore
	}

	line := fmt.Sprintf("%2d. %s  %s",
		rank,
		r.styles.Filename.Render(res.Filename),
		scoreStyle.Render(fmt.Sprintf("%.2f", score)))
	if section := res.Metadata[retrieval.MetaSection]; section != "" {
		line += "  " + r.styles.Section.Render(section)
	}
	fmt.Fprintln(r.w, line)

	fmt.Fprintln(r.w, "    "+r.styles.Snippet.Render(snippet(res.Content)))

	var notes []string
	if len(res.Strategies) > 1 {
		notes = append(notes, strings.Join(res.Strategies, "+"))
	}
	if res.HasEntity {
		notes = append(notes, "entity match")
	}
	if res.LLMScored {
		notes = append(notes, fmt.Sprintf("llm %.1f/10", res.LLMScore))
	}
	if len(notes) > 0 {
		fmt.Fprintln(r.w, "    "+r.styles.Dim.Render(strings.Join(notes, " · ")))
	}
	fmt.Fprintln(r.w)
}

// RenderAnswer writes a generated answer with its sources.
func (r *Renderer) RenderAnswer(a *answer.Answer) {
	fmt.Fprintln(r.w, a.Text)

	if len(a.Sources) == 0 {
		return
	}
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.styles.Label.Render("Sources:"))
	for _, src := range a.Sources {
		line := fmt.Sprintf("  - %s", r.styles.Filename.Render(src.Filename))
		if src.Section != "" {
			line += " " + r.styles.Section.Render("("+src.Section+")")
		}
		line += " " + r.styles.Score.Render(fmt.Sprintf("%.2f", src.Score))
		fmt.Fprintln(r.w, line)
	}
}

// RenderError writes an error message.
func (r *Renderer) RenderError(err error) {
	fmt.Fprintln(r.w, r.styles.Error.Render("Error: ")+err.Error())
}

// snippet truncates content to one display line.
func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > snippetLen {
		content = content[:snippetLen] + "..."
	}
	return content
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func noColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
