package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/fluxcapacitor2/websearch/app/indexer"
	"github.com/gocolly/colly"
)

// FetchError is a terminal, non-fatal outcome for one URL: the page is
// skipped, its links are not followed, and it does not count toward the
// page limit.
type FetchError struct {
	URL    string
	Reason string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %v: %v", e.URL, e.Reason)
}

var textContentTypes = []string{"text/html", "application/xhtml+xml", "application/xml"}

func isTextContentType(contentType string) bool {
	for _, prefix := range textContentTypes {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), prefix) {
			return true
		}
	}
	return false
}

// fetch retrieves one page with a fresh collector, the way the rest of this
// codebase talks to the network. Non-2xx responses, non-text content types,
// and undecodable bodies all come back as *FetchError.
func fetch(pageURL string) (*indexer.RawPage, error) {
	collector := colly.NewCollector()

	var page *indexer.RawPage
	var failure error

	collector.OnResponse(func(resp *colly.Response) {
		contentType := resp.Headers.Get("Content-Type")
		if !isTextContentType(contentType) {
			failure = &FetchError{URL: pageURL, Reason: fmt.Sprintf("unsupported content type %q", contentType)}
			return
		}
		page = &indexer.RawPage{
			URL:       pageURL,
			FetchedAt: time.Now(),
			Headers:   *resp.Headers,
			Body:      resp.Body,
		}
	})

	collector.OnError(func(resp *colly.Response, err error) {
		failure = &FetchError{URL: pageURL, Reason: err.Error()}
	})

	if err := collector.Visit(pageURL); err != nil && failure == nil {
		failure = &FetchError{URL: pageURL, Reason: err.Error()}
	}
	collector.Wait()

	if failure != nil {
		return nil, failure
	}
	if page == nil {
		return nil, &FetchError{URL: pageURL, Reason: "no response"}
	}
	return page, nil
}
