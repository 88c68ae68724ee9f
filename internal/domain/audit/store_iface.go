package audit

import "context"

type StoreAPI interface {
	InsertEvent(ctx context.Context, e Event) error
	ListEvents(ctx context.Context, f Filter, limit, offset int) ([]Event, int, error)
}
