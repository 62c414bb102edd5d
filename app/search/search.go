// Package search parses free-text queries, filters candidate pages against
// the index, and ranks them under one of three scoring models.
package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/fluxcapacitor2/websearch/app/database"
	"github.com/fluxcapacitor2/websearch/app/textprocessor"
)

// Model selects how candidate pages are scored.
type Model string

const (
	// Normalized TF x IDF over body postings.
	ModelTFIDF Model = "tfidf"
	// Like ModelTFIDF, with title postings added at a fixed 3.9 weight.
	ModelTitleWeighted Model = "tfidf-title"
	// Cosine similarity between the page and query term vectors.
	ModelVectorSpace Model = "vector"
)

type Result struct {
	PageID int64   `json:"pageId"`
	URL    string  `json:"url"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	// Per-stem score contributions, for display of scoring detail.
	TermScores map[string]float64 `json:"termScores"`
}

// Search runs a query against the index and returns results ordered by
// descending score; equal scores order by ascending page id. A query with no
// surviving terms or phrases returns no results.
func Search(db database.Database, rawQuery string, model Model) ([]Result, error) {
	switch model {
	case ModelTFIDF, ModelTitleWeighted, ModelVectorSpace:
	default:
		return nil, fmt.Errorf("unknown ranking model %q", model)
	}

	query := Parse(rawQuery)

	freeStems := []string{}
	for _, term := range query.Terms {
		if stem := textprocessor.TransformWord(term); stem != "" {
			freeStems = append(freeStems, stem)
		}
	}

	// A phrase whose every word is a stop word imposes no constraint.
	phraseStems := [][]string{}
	for _, phrase := range query.Phrases {
		stems := []string{}
		for _, word := range strings.Fields(phrase) {
			if stem := textprocessor.TransformWord(word); stem != "" {
				stems = append(stems, stem)
			}
		}
		if len(stems) > 0 {
			phraseStems = append(phraseStems, stems)
		}
	}

	if len(freeStems) == 0 && len(phraseStems) == 0 {
		return []Result{}, nil
	}

	// Every stem the query mentions, duplicates preserved: these weight the
	// query vector and define the scoring dimensions.
	allStems := slices.Clone(freeStems)
	for _, stems := range phraseStems {
		allStems = append(allStems, stems...)
	}

	c, err := loadCorpus(db, allStems)
	if err != nil {
		return nil, err
	}

	// Candidate filtering: every free stem must occur in body or title, and
	// every phrase must occur as a consecutive run.
	var candidates map[int64]bool
	if unique := uniqueStems(freeStems); len(unique) > 0 {
		for i, stem := range unique {
			pages := c.pagesWith(stem)
			if i == 0 {
				candidates = pages
				continue
			}
			for id := range candidates {
				if !pages[id] {
					delete(candidates, id)
				}
			}
		}
	} else {
		candidates = c.pagesWith(phraseStems[0][0])
	}
	for _, stems := range phraseStems {
		for id := range candidates {
			if !c.hasPhrase(id, stems) {
				delete(candidates, id)
			}
		}
	}

	dims := uniqueStems(allStems)
	queryTF := map[string]float64{}
	for _, stem := range allStems {
		queryTF[stem]++
	}

	results := make([]Result, 0, len(candidates))
	for id := range candidates {
		detail := map[string]float64{}
		var score float64

		switch model {
		case ModelTitleWeighted:
			score, err = scoreTitleWeighted(c, id, dims, detail)
		case ModelVectorSpace:
			score, err = scoreVectorSpace(c, id, dims, queryTF, detail)
		default:
			score, err = scoreTFIDF(c, id, dims, detail)
		}
		if err != nil {
			return nil, err
		}

		url, err := db.URLText(id)
		if err != nil {
			return nil, err
		}
		page, err := db.Page(id)
		if err != nil {
			return nil, err
		}

		results = append(results, Result{
			PageID:     id,
			URL:        url,
			Title:      page.Title,
			Score:      score,
			TermScores: detail,
		})
	}

	slices.SortFunc(results, func(a, b Result) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.PageID, b.PageID)
	})

	return results, nil
}

func uniqueStems(stems []string) []string {
	unique := make([]string, 0, len(stems))
	seen := map[string]bool{}
	for _, stem := range stems {
		if !seen[stem] {
			seen[stem] = true
			unique = append(unique, stem)
		}
	}
	return unique
}
