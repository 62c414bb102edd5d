// Package indexer turns one fetched page into normalized word-position
// postings for its body and title, plus the page's outgoing link set.
package indexer

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fluxcapacitor2/websearch/app/database"
	"github.com/fluxcapacitor2/websearch/app/textprocessor"
	"golang.org/x/exp/maps"
	"golang.org/x/net/html"
)

// RawPage is a fetched page before indexing.
type RawPage struct {
	URL       string
	FetchedAt time.Time
	Headers   http.Header
	Body      []byte
}

// IndexedPage is the indexer's output: page metadata plus, per text stream,
// a map from stem to the positions at which it occurs.
type IndexedPage struct {
	URL        string
	ModifiedAt time.Time
	ByteSize   int64
	Title      string
	Markup     string
	Plaintext  string
	Links      []string
	Body       map[string][]int64
	TitleTerms map[string][]int64
}

var supportedSchemes = []string{"http", "https"}

// Index parses a fetched page and produces its indexed form. Byte size comes
// from the Content-Length header when present and valid, else the plaintext
// byte length; the modified time comes from Last-Modified (then Date), else
// the fetch time.
func Index(page *RawPage) (*IndexedPage, error) {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", page.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing %v: %w", page.URL, err)
	}

	// Browsers display markup inside <title> verbatim, so the title is kept
	// as its raw inner HTML. Title nodes are removed before the plaintext
	// walk so title terms only land in the title stream.
	title := ""
	if t := doc.Find("title").First(); t.Length() > 0 {
		if inner, err := t.Html(); err == nil {
			title = inner
		}
	}
	doc.Find("title").Remove()

	plaintext := ""
	for _, node := range doc.Nodes {
		plaintext += getText(node)
	}

	urls := map[string]struct{}{}
	doc.Find("a[href]").Each(func(i int, link *goquery.Selection) {
		href, exists := link.Attr("href")
		if !exists {
			return
		}
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil || !slices.Contains(supportedSchemes, resolved.Scheme) {
			return
		}
		urls[resolved.String()] = struct{}{}
	})

	byteSize := int64(len(plaintext))
	if header := page.Headers.Get("Content-Length"); header != "" {
		if parsed, err := strconv.ParseInt(header, 10, 64); err == nil && parsed >= 0 {
			byteSize = parsed
		}
	}

	modified := page.FetchedAt
	for _, header := range []string{"Last-Modified", "Date"} {
		if value := page.Headers.Get(header); value != "" {
			if parsed, err := http.ParseTime(value); err == nil {
				modified = parsed
				break
			}
		}
	}

	return &IndexedPage{
		URL:        page.URL,
		ModifiedAt: modified,
		ByteSize:   byteSize,
		Title:      title,
		Markup:     string(page.Body),
		Plaintext:  plaintext,
		Links:      maps.Keys(urls),
		Body:       occurrences(plaintext),
		TitleTerms: occurrences(title),
	}, nil
}

// occurrences groups the transform output by stem. Positions are ascending
// and unique by construction since each token position is visited once.
func occurrences(text string) map[string][]int64 {
	out := map[string][]int64{}
	for _, token := range textprocessor.Transform(text) {
		out[token.Stem] = append(out[token.Stem], token.Position)
	}
	return out
}

// Store interns the page's URL, links, and words, then writes everything
// through a single PutPage call, which is the atomicity boundary for the
// page's index data. Returns the page's URL id and its resolved link set.
func Store(db database.Database, page *IndexedPage) (int64, database.IntSet, error) {
	urlID, err := db.InternURL(page.URL)
	if err != nil {
		return 0, nil, err
	}

	linkIDs := make([]int64, 0, len(page.Links))
	for _, link := range page.Links {
		id, err := db.InternURL(link)
		if err != nil {
			return 0, nil, err
		}
		linkIDs = append(linkIDs, id)
	}

	data := &database.PageData{
		ModifiedAt:    page.ModifiedAt.Unix(),
		ByteSize:      page.ByteSize,
		Title:         page.Title,
		Markup:        page.Markup,
		Plaintext:     page.Plaintext,
		Links:         database.MakeIntSet(linkIDs),
		BodyPostings:  map[int64]database.IntSet{},
		TitlePostings: map[int64]database.IntSet{},
	}

	for _, stream := range []struct {
		occurrences map[string][]int64
		postings    map[int64]database.IntSet
	}{
		{page.Body, data.BodyPostings},
		{page.TitleTerms, data.TitlePostings},
	} {
		for stem, positions := range stream.occurrences {
			wordID, err := db.InternWord(stem)
			if err != nil {
				return 0, nil, err
			}
			stream.postings[wordID] = database.MakeIntSet(positions)
		}
	}

	if err := db.PutPage(urlID, data); err != nil {
		return 0, nil, err
	}
	return urlID, data.Links, nil
}

var nonTextElements = []string{"head", "meta", "script", "style", "noscript", "object", "svg"}

func getText(node *html.Node) string {
	text := ""

	if node.FirstChild != nil {
		if !slices.Contains(nonTextElements, node.Data) {
			text += getText(node.FirstChild) + " "
		}
	}

	if node.Type == html.TextNode {
		text += node.Data + " "
	}

	if node.NextSibling != nil {
		text += getText(node.NextSibling) + " "
	}

	return strings.TrimSpace(text)
}
