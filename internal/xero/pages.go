package xero

import (
	"context"
	"iter"

	"github.com/HallyG/xerograb/internal/model"
)

// Pages returns the pages of a list endpoint as a lazy sequence. Iteration stops after the first
// error, and a new sequence has to be requested to start over.
//
// Endpoints without paging are fetched once. Paged endpoints are fetched until a page holds fewer
// than PageSize items. Offset endpoints pass the offset field of the last item until a page is empty.
func Pages(ctx context.Context, c Client, tenantID string, endpoint model.Endpoint) iter.Seq2[[]*model.Object, error] {
	return func(yield func([]*model.Object, error) bool) {
		var cursor Cursor
		if endpoint.Paging == model.PagingPage {
			cursor.Page = 1
		}

		for {
			page, err := c.FetchPage(ctx, tenantID, endpoint, cursor)
			if err != nil {
				yield(nil, err)
				return
			}

			items := page.List()

			switch endpoint.Paging {
			case model.PagingPage:
				if len(items) > 0 && !yield(items, nil) {
					return
				}

				if len(items) < PageSize {
					return
				}

				cursor.Page++
			case model.PagingOffset:
				if len(items) == 0 || !yield(items, nil) {
					return
				}

				offset := model.FormatScalar(items[len(items)-1].FieldValue(endpoint.OffsetField), "")
				if offset == "" || offset == cursor.Offset {
					return
				}

				cursor.Offset = offset
			default:
				yield(items, nil)
				return
			}
		}
	}
}
