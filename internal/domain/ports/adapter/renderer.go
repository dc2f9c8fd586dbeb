package adapter

import (
	"context"

	"diaryshare/internal/domain/model"
)

// DocumentRenderer turns a resolved response into a downloadable document.
// PDF and image renderers live outside this service; they only ever see resolved pairs.
type DocumentRenderer interface {
	ContentType() string
	FileExtension() string
	Render(ctx context.Context, r *model.ResolvedResponse) ([]byte, error)
}
