package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.DocumentRenderer = (*TextRenderer)(nil)

// TextRenderer writes a response as a plain-text document. PDF and image
// renderers plug into the same port from outside the service.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer { return &TextRenderer{} }

func (TextRenderer) ContentType() string   { return "text/plain; charset=utf-8" }
func (TextRenderer) FileExtension() string { return "txt" }

func (TextRenderer) Render(ctx context.Context, r *model.ResolvedResponse) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("render: nil response")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintln(&b, r.SetTitle)
	fmt.Fprintln(&b, strings.Repeat("=", len([]rune(r.SetTitle))))
	fmt.Fprintf(&b, "Answered by %s on %s\n", r.Respondent, r.SubmittedAt.UTC().Format("2006-01-02 15:04 MST"))
	if r.StyleName != "" {
		fmt.Fprintf(&b, "Style: %s\n", r.StyleName)
	}
	for i, p := range r.Pairs {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, p.Question, strings.ReplaceAll(p.Answer, "\n", "\n   "))
	}
	if len(r.Pairs) == 0 {
		fmt.Fprintln(&b, "\n(no answers)")
	}
	return b.Bytes(), nil
}
