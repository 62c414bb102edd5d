package search

import (
	"math"

	"github.com/fluxcapacitor2/websearch/app/database"
)

// corpus holds the postings and corpus statistics one query needs. Document
// frequencies always come from the full indexed corpus, not the candidate
// set, so scores are comparable across queries.
type corpus struct {
	db        database.Database
	pageCount int64
	// stem -> page id -> positions, per stream
	body  map[string]map[int64]database.IntSet
	title map[string]map[int64]database.IntSet
	// per-page maximum posting frequency, cached per stream
	maxBody  map[int64]int64
	maxTitle map[int64]int64
}

func loadCorpus(db database.Database, stems []string) (*corpus, error) {
	c := &corpus{
		db:       db,
		body:     map[string]map[int64]database.IntSet{},
		title:    map[string]map[int64]database.IntSet{},
		maxBody:  map[int64]int64{},
		maxTitle: map[int64]int64{},
	}

	var err error
	if c.pageCount, err = db.PageCount(); err != nil {
		return nil, err
	}

	for _, stem := range stems {
		if _, done := c.body[stem]; done {
			continue
		}
		// Word rows are created lazily on first sight, querying included.
		wordID, err := db.InternWord(stem)
		if err != nil {
			return nil, err
		}
		if c.body[stem], err = postingsByPage(db, wordID, database.VariantBody); err != nil {
			return nil, err
		}
		if c.title[stem], err = postingsByPage(db, wordID, database.VariantTitle); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func postingsByPage(db database.Database, wordID int64, variant database.Variant) (map[int64]database.IntSet, error) {
	postings, err := db.PostingsFor(wordID, variant)
	if err != nil {
		return nil, err
	}
	byPage := make(map[int64]database.IntSet, len(postings))
	for _, posting := range postings {
		byPage[posting.PageID] = posting.Positions
	}
	return byPage, nil
}

func (c *corpus) stream(variant database.Variant) map[string]map[int64]database.IntSet {
	if variant == database.VariantTitle {
		return c.title
	}
	return c.body
}

// pagesWith returns the pages containing the stem in either stream.
func (c *corpus) pagesWith(stem string) map[int64]bool {
	pages := map[int64]bool{}
	for id := range c.body[stem] {
		pages[id] = true
	}
	for id := range c.title[stem] {
		pages[id] = true
	}
	return pages
}

// hasPhrase reports whether the stems occur as a contiguous run at
// consecutive recorded positions, in order, in the page's body or title.
func (c *corpus) hasPhrase(pageID int64, stems []string) bool {
	return c.hasPhraseIn(database.VariantBody, pageID, stems) ||
		c.hasPhraseIn(database.VariantTitle, pageID, stems)
}

func (c *corpus) hasPhraseIn(variant database.Variant, pageID int64, stems []string) bool {
	stream := c.stream(variant)
	starts, ok := stream[stems[0]][pageID]
	if !ok {
		return false
	}

	for _, start := range starts {
		match := true
		for offset := 1; offset < len(stems); offset++ {
			positions, ok := stream[stems[offset]][pageID]
			if !ok || !positions.Contains(start+int64(offset)) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// idf is log2(corpus size / document frequency); a stem appearing nowhere
// (or an empty corpus) contributes 0 instead of dividing by zero.
func (c *corpus) idf(stem string, variant database.Variant) float64 {
	df := len(c.stream(variant)[stem])
	if df <= 0 || c.pageCount <= 0 {
		return 0
	}
	return math.Log2(float64(c.pageCount) / float64(df))
}

// normTF is the stem's frequency on the page divided by the page's maximum
// posting frequency in the same stream.
func (c *corpus) normTF(pageID int64, stem string, variant database.Variant) (float64, error) {
	positions, ok := c.stream(variant)[stem][pageID]
	if !ok || positions.Len() == 0 {
		return 0, nil
	}
	max, err := c.maxFrequency(pageID, variant)
	if err != nil {
		return 0, err
	}
	if max <= 0 {
		return 0, nil
	}
	return float64(positions.Len()) / float64(max), nil
}

func (c *corpus) maxFrequency(pageID int64, variant database.Variant) (int64, error) {
	cache := c.maxBody
	if variant == database.VariantTitle {
		cache = c.maxTitle
	}
	if max, ok := cache[pageID]; ok {
		return max, nil
	}

	max, err := c.db.MaxFrequency(pageID, variant)
	if err != nil {
		return 0, err
	}
	cache[pageID] = max
	return max, nil
}
