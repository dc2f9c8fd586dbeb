package export

import (
	"context"

	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.DocumentRenderer = (*limitedRenderer)(nil)

type limitedRenderer struct {
	inner adapter.DocumentRenderer
	sem   chan struct{}
}

// NewLimitedRenderer caps how many renders run at once. Heavy renderers
// (headless browsers) are the usual reason to set it.
func NewLimitedRenderer(inner adapter.DocumentRenderer, maxConcurrent int) adapter.DocumentRenderer {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedRenderer{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedRenderer) ContentType() string   { return l.inner.ContentType() }
func (l *limitedRenderer) FileExtension() string { return l.inner.FileExtension() }

func (l *limitedRenderer) Render(ctx context.Context, r *model.ResolvedResponse) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Render(ctx, r)
}
