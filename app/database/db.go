package database

import "errors"

// Variant selects which text stream a posting belongs to: the page body
// or the page title. The two streams are indexed and stored separately.
type Variant int

const (
	VariantBody Variant = iota
	VariantTitle
)

// Errors reported by Database implementations. Callers match them with
// errors.Is; implementations wrap them with additional detail.
var (
	// ErrNotFound is returned when an id, URL, word, or page does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReferenced is returned when a URL cannot be deleted because a
	// page's link set (or the URL's own page row) still references it.
	ErrReferenced = errors.New("still referenced")
	// ErrInvalidLinkSet is returned when a links collection is malformed:
	// duplicate elements, unsorted elements, or a dangling URL reference.
	ErrInvalidLinkSet = errors.New("invalid link set")
	// ErrInvalidPositionSet is returned when a positions collection is
	// malformed: duplicate, unsorted, or negative elements.
	ErrInvalidPositionSet = errors.New("invalid position set")
	// ErrIntegrity is returned for any other storage constraint violation.
	// The write is rolled back and the caller should abort the current run.
	ErrIntegrity = errors.New("integrity violation")
)

type Database interface {
	// Create necessary tables
	Setup() error

	// Return the id for a URL, assigning and persisting a new id if the text
	// has not been seen before. Repeated calls with equal text return the same id.
	InternURL(text string) (int64, error)
	// Resolve a URL id back to its text.
	URLText(id int64) (string, error)
	// Return the id for a word, assigning a new id if needed. Words are
	// created lazily by both indexing and querying.
	InternWord(text string) (int64, error)
	// Resolve a word id back to its text.
	WordText(id int64) (string, error)
	// Record that `id` redirects to `target`. The redirect is tracked but
	// never consulted by the crawler or the ranking logic.
	SetRedirect(id int64, target int64) error

	// Replace the page stored for the given URL id, postings included, as one
	// atomic unit. Malformed links fail with ErrInvalidLinkSet, malformed
	// positions with ErrInvalidPositionSet; nothing is written on failure.
	PutPage(urlID int64, page *PageData) error
	// Load the page stored for the given URL id, postings included.
	Page(urlID int64) (*PageData, error)
	// Remove a URL. Fails with ErrReferenced while any page links to it.
	DeleteURL(id int64) error
	// Move a URL to a new id, rewriting every link set that references the
	// old id. Fails if the new id is already taken.
	RenameURL(oldID int64, newID int64) error

	// Return every page containing the word in the given stream, with its
	// positions and frequency. No matches is an empty slice, not an error.
	PostingsFor(wordID int64, variant Variant) ([]Posting, error)
	// Number of indexed pages.
	PageCount() (int64, error)
	// Ids of all indexed pages, ascending.
	PageIDs() ([]int64, error)
	// The largest posting frequency on a page in the given stream, or 0 for
	// a page with no postings.
	MaxFrequency(pageID int64, variant Variant) (int64, error)
	// Combined body+title frequency per word on a page, for the summary
	// export. Ordered by descending frequency, then word text.
	TermFrequencies(pageID int64) ([]TermCount, error)
}

// PageData is the stored form of one indexed page. Postings map word ids to
// their occurrence positions; frequencies are always derived from the
// position sets, never stored independently.
type PageData struct {
	ModifiedAt    int64
	ByteSize      int64
	Title         string
	Markup        string
	Plaintext     string
	Links         IntSet
	BodyPostings  map[int64]IntSet
	TitlePostings map[int64]IntSet
}

type Posting struct {
	PageID    int64
	Positions IntSet
	Frequency int64
}

type TermCount struct {
	Word      string
	Frequency int64
}
