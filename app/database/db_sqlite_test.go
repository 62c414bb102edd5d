package database

import (
	"errors"
	"path"
	"reflect"
	"testing"
)

func createDB(t *testing.T) Database {
	db, err := SQLiteFromFile(path.Join(t.TempDir(), "temp.db"))

	if err != nil {
		t.Fatalf("database creation failed: %v", err)
	}

	if err := db.Setup(); err != nil {
		t.Fatalf("database setup failed: %v", err)
	}

	return db
}

func TestInternURLIsIdempotent(t *testing.T) {
	db := createDB(t)

	first, err := db.InternURL("https://example.com/a")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	second, err := db.InternURL("https://example.com/a")
	if err != nil {
		t.Fatalf("failed to re-intern URL: %v", err)
	}
	other, err := db.InternURL("https://example.com/b")
	if err != nil {
		t.Fatalf("failed to intern second URL: %v", err)
	}

	if first != second {
		t.Fatalf("interning the same URL twice returned different ids: %v, %v", first, second)
	}
	if first == other {
		t.Fatalf("interning distinct URLs returned the same id: %v", first)
	}

	text, err := db.URLText(first)
	if err != nil {
		t.Fatalf("failed to resolve URL id: %v", err)
	}
	if text != "https://example.com/a" {
		t.Fatalf("unexpected URL text: %v", text)
	}
}

func TestInternWordIsIdempotent(t *testing.T) {
	db := createDB(t)

	first, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}
	second, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to re-intern word: %v", err)
	}

	if first != second {
		t.Fatalf("interning the same word twice returned different ids: %v, %v", first, second)
	}

	text, err := db.WordText(first)
	if err != nil {
		t.Fatalf("failed to resolve word id: %v", err)
	}
	if text != "apple" {
		t.Fatalf("unexpected word text: %v", text)
	}
}

func TestResolveUnknownIDs(t *testing.T) {
	db := createDB(t)

	if _, err := db.URLText(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown URL id, got %v", err)
	}
	if _, err := db.WordText(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown word id, got %v", err)
	}
	if _, err := db.Page(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown page, got %v", err)
	}
}

// storePage interns a URL, its links, and the posting words, then writes the
// page. Postings map stem to positions.
func storePage(t *testing.T, db Database, url string, links []string, body map[string][]int64, title map[string][]int64) int64 {
	t.Helper()

	urlID, err := db.InternURL(url)
	if err != nil {
		t.Fatalf("failed to intern URL %v: %v", url, err)
	}

	linkIDs := make([]int64, 0, len(links))
	for _, link := range links {
		id, err := db.InternURL(link)
		if err != nil {
			t.Fatalf("failed to intern link %v: %v", link, err)
		}
		linkIDs = append(linkIDs, id)
	}

	page := &PageData{
		ModifiedAt:    1700000000,
		ByteSize:      100,
		Title:         "title of " + url,
		Links:         MakeIntSet(linkIDs),
		BodyPostings:  map[int64]IntSet{},
		TitlePostings: map[int64]IntSet{},
	}
	for stem, positions := range body {
		wordID, err := db.InternWord(stem)
		if err != nil {
			t.Fatalf("failed to intern word %v: %v", stem, err)
		}
		page.BodyPostings[wordID] = MakeIntSet(positions)
	}
	for stem, positions := range title {
		wordID, err := db.InternWord(stem)
		if err != nil {
			t.Fatalf("failed to intern word %v: %v", stem, err)
		}
		page.TitlePostings[wordID] = MakeIntSet(positions)
	}

	if err := db.PutPage(urlID, page); err != nil {
		t.Fatalf("failed to store page %v: %v", url, err)
	}
	return urlID
}

func TestPutPageRoundTrip(t *testing.T) {
	db := createDB(t)

	pageID := storePage(t, db, "https://example.com/", []string{"https://example.com/next"},
		map[string][]int64{"apple": {0, 2}, "banana": {1}},
		map[string][]int64{"apple": {0}})

	page, err := db.Page(pageID)
	if err != nil {
		t.Fatalf("failed to load page: %v", err)
	}

	apple, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}
	banana, err := db.InternWord("banana")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}

	wantBody := map[int64]IntSet{apple: {0, 2}, banana: {1}}
	if !reflect.DeepEqual(page.BodyPostings, wantBody) {
		t.Fatalf("unexpected body postings - expected %v, got %v", wantBody, page.BodyPostings)
	}
	wantTitle := map[int64]IntSet{apple: {0}}
	if !reflect.DeepEqual(page.TitlePostings, wantTitle) {
		t.Fatalf("unexpected title postings - expected %v, got %v", wantTitle, page.TitlePostings)
	}
	if page.Links.Len() != 1 {
		t.Fatalf("unexpected links: %v", page.Links)
	}
}

func TestPutPageReplacesPostings(t *testing.T) {
	db := createDB(t)

	pageID := storePage(t, db, "https://example.com/", nil,
		map[string][]int64{"apple": {0}, "banana": {1}}, nil)
	storePage(t, db, "https://example.com/", nil,
		map[string][]int64{"cherry": {0}}, nil)

	page, err := db.Page(pageID)
	if err != nil {
		t.Fatalf("failed to load page: %v", err)
	}

	cherry, err := db.InternWord("cherry")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}
	want := map[int64]IntSet{cherry: {0}}
	if !reflect.DeepEqual(page.BodyPostings, want) {
		t.Fatalf("old postings survived a replace - expected %v, got %v", want, page.BodyPostings)
	}
}

func TestPutPageRejectsMalformedSets(t *testing.T) {
	db := createDB(t)

	urlID, err := db.InternURL("https://example.com/")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	wordID, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}

	err = db.PutPage(urlID, &PageData{
		Links:         IntSet{2, 1},
		BodyPostings:  map[int64]IntSet{},
		TitlePostings: map[int64]IntSet{},
	})
	if !errors.Is(err, ErrInvalidLinkSet) {
		t.Fatalf("expected ErrInvalidLinkSet for unsorted links, got %v", err)
	}

	err = db.PutPage(urlID, &PageData{
		Links:         IntSet{},
		BodyPostings:  map[int64]IntSet{wordID: {3, 3}},
		TitlePostings: map[int64]IntSet{},
	})
	if !errors.Is(err, ErrInvalidPositionSet) {
		t.Fatalf("expected ErrInvalidPositionSet for duplicate positions, got %v", err)
	}

	// Nothing may have been written by the failed attempts
	if _, err := db.Page(urlID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed PutPage left a page behind: %v", err)
	}
	count, err := db.PageCount()
	if err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no pages after rejected writes, got %v", count)
	}
}

func TestPutPageRejectsDanglingLinks(t *testing.T) {
	db := createDB(t)

	urlID, err := db.InternURL("https://example.com/")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}

	err = db.PutPage(urlID, &PageData{
		Links:         IntSet{999},
		BodyPostings:  map[int64]IntSet{},
		TitlePostings: map[int64]IntSet{},
	})
	if !errors.Is(err, ErrInvalidLinkSet) {
		t.Fatalf("expected ErrInvalidLinkSet for a dangling link, got %v", err)
	}

	if _, err := db.Page(urlID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed PutPage left a page behind: %v", err)
	}
}

func TestDeleteURLRestrictsWhileReferenced(t *testing.T) {
	db := createDB(t)

	target, err := db.InternURL("https://example.com/target")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	storePage(t, db, "https://example.com/", []string{"https://example.com/target"}, nil, nil)

	if err := db.DeleteURL(target); !errors.Is(err, ErrReferenced) {
		t.Fatalf("expected ErrReferenced while a page links to the URL, got %v", err)
	}

	pageID, err := db.InternURL("https://example.com/")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	if err := db.DeleteURL(pageID); !errors.Is(err, ErrReferenced) {
		t.Fatalf("expected ErrReferenced for a URL with an indexed page, got %v", err)
	}

	// Replace the page without the link; the target becomes deletable
	storePage(t, db, "https://example.com/", nil, nil, nil)
	if err := db.DeleteURL(target); err != nil {
		t.Fatalf("failed to delete unreferenced URL: %v", err)
	}
	if _, err := db.URLText(target); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted URL still resolves: %v", err)
	}
}

func TestDeleteURLRestrictsRedirectTargets(t *testing.T) {
	db := createDB(t)

	from, err := db.InternURL("https://example.com/old")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	to, err := db.InternURL("https://example.com/new")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	if err := db.SetRedirect(from, to); err != nil {
		t.Fatalf("failed to set redirect: %v", err)
	}

	if err := db.DeleteURL(to); !errors.Is(err, ErrReferenced) {
		t.Fatalf("expected ErrReferenced for a redirect target, got %v", err)
	}
}

func TestDeleteURLNotFound(t *testing.T) {
	db := createDB(t)

	if err := db.DeleteURL(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown URL, got %v", err)
	}
}

func TestRenameURLCascades(t *testing.T) {
	db := createDB(t)

	target := storePage(t, db, "https://example.com/target", nil,
		map[string][]int64{"apple": {0}}, map[string][]int64{"apple": {0}})
	referrer := storePage(t, db, "https://example.com/", []string{"https://example.com/target"}, nil, nil)

	const newID = int64(50)
	if err := db.RenameURL(target, newID); err != nil {
		t.Fatalf("failed to rename URL: %v", err)
	}

	// Old id is gone, new id carries the URL, page and postings
	if _, err := db.URLText(target); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old URL id still resolves after rename")
	}
	text, err := db.URLText(newID)
	if err != nil || text != "https://example.com/target" {
		t.Fatalf("new URL id does not resolve: %v, %v", text, err)
	}
	page, err := db.Page(newID)
	if err != nil {
		t.Fatalf("page did not move with the rename: %v", err)
	}
	if len(page.BodyPostings) != 1 || len(page.TitlePostings) != 1 {
		t.Fatalf("postings did not move with the rename: %+v", page)
	}

	// The referencing link set was rewritten
	referring, err := db.Page(referrer)
	if err != nil {
		t.Fatalf("failed to load referring page: %v", err)
	}
	if !reflect.DeepEqual(referring.Links, IntSet{newID}) {
		t.Fatalf("link set was not rewritten - got %v", referring.Links)
	}

	apple, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}
	postings, err := db.PostingsFor(apple, VariantBody)
	if err != nil {
		t.Fatalf("failed to load postings: %v", err)
	}
	if len(postings) != 1 || postings[0].PageID != newID {
		t.Fatalf("postings reference the old page id: %+v", postings)
	}
}

func TestRenameURLRejectsTakenID(t *testing.T) {
	db := createDB(t)

	a, err := db.InternURL("https://example.com/a")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}
	b, err := db.InternURL("https://example.com/b")
	if err != nil {
		t.Fatalf("failed to intern URL: %v", err)
	}

	if err := db.RenameURL(a, b); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity when renaming onto a taken id, got %v", err)
	}
	if err := db.RenameURL(999, 1000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when renaming an unknown id, got %v", err)
	}
}

func TestPostingsForDerivesFrequency(t *testing.T) {
	db := createDB(t)

	first := storePage(t, db, "https://example.com/a", nil,
		map[string][]int64{"apple": {0, 4, 9}}, nil)
	second := storePage(t, db, "https://example.com/b", nil,
		map[string][]int64{"apple": {1}}, nil)

	apple, err := db.InternWord("apple")
	if err != nil {
		t.Fatalf("failed to intern word: %v", err)
	}

	postings, err := db.PostingsFor(apple, VariantBody)
	if err != nil {
		t.Fatalf("failed to load postings: %v", err)
	}

	want := []Posting{
		{PageID: first, Positions: IntSet{0, 4, 9}, Frequency: 3},
		{PageID: second, Positions: IntSet{1}, Frequency: 1},
	}
	if !reflect.DeepEqual(postings, want) {
		t.Fatalf("unexpected postings - expected %+v, got %+v", want, postings)
	}

	empty, err := db.PostingsFor(apple, VariantTitle)
	if err != nil {
		t.Fatalf("failed to load title postings: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no title postings, got %+v", empty)
	}
}

func TestPageStatistics(t *testing.T) {
	db := createDB(t)

	first := storePage(t, db, "https://example.com/a", nil,
		map[string][]int64{"apple": {0, 2}, "banana": {1}},
		map[string][]int64{"banana": {0}})
	second := storePage(t, db, "https://example.com/b", nil,
		map[string][]int64{"apple": {0}}, nil)

	count, err := db.PageCount()
	if err != nil {
		t.Fatalf("failed to count pages: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pages, got %v", count)
	}

	ids, err := db.PageIDs()
	if err != nil {
		t.Fatalf("failed to list page ids: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{first, second}) {
		t.Fatalf("unexpected page ids: %v", ids)
	}

	max, err := db.MaxFrequency(first, VariantBody)
	if err != nil {
		t.Fatalf("failed to compute max frequency: %v", err)
	}
	if max != 2 {
		t.Fatalf("expected max body frequency 2, got %v", max)
	}
	max, err = db.MaxFrequency(second, VariantTitle)
	if err != nil {
		t.Fatalf("failed to compute max frequency: %v", err)
	}
	if max != 0 {
		t.Fatalf("expected max frequency 0 for a page with no title postings, got %v", max)
	}

	counts, err := db.TermFrequencies(first)
	if err != nil {
		t.Fatalf("failed to compute term frequencies: %v", err)
	}
	want := []TermCount{{Word: "apple", Frequency: 2}, {Word: "banana", Frequency: 2}}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("unexpected term frequencies - expected %+v, got %+v", want, counts)
	}
}
