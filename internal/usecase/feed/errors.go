package feed

import "errors"

var (
	// ErrFeedNotFound is returned for a feed name absent from the catalog.
	ErrFeedNotFound = errors.New("feed not found")

	// ErrCategoryNotFound is returned for a category the feed does not define.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrAllSourcesFailed is returned by a list producer when no source
	// succeeded, so the assembler serves the last good response instead of
	// caching an empty one.
	ErrAllSourcesFailed = errors.New("all sources failed")
)
