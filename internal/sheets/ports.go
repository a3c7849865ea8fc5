package sheets

import (
	"context"

	"fooddiary/internal/export"
)

// Ports for outbound adapters.
type (
	// DocumentWriter publishes a rendered export and returns a reference to
	// where it was written.
	DocumentWriter interface {
		WriteDocument(ctx context.Context, doc export.Document) (ref string, err error)
	}
)
