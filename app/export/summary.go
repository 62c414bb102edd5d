// Package export writes the plain-text index summary deliverable.
package export

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fluxcapacitor2/websearch/app/database"
)

const pageSeparator = "------------------------------\n"

// Summary writes one block per indexed page, ascending by page id: the title
// (or "(no title)"), the URL, the modification time and byte size, the most
// frequent keywords, and the outgoing links. Blocks are separated by a line
// of hyphens. keywordCount and linkCount cap their respective lists; a
// negative cap means unlimited.
func Summary(db database.Database, w io.Writer, keywordCount, linkCount int) error {
	ids, err := db.PageIDs()
	if err != nil {
		return err
	}

	out := bufio.NewWriter(w)
	separator := ""
	for _, id := range ids {
		page, err := db.Page(id)
		if err != nil {
			return err
		}
		url, err := db.URLText(id)
		if err != nil {
			return err
		}

		out.WriteString(separator)
		separator = pageSeparator

		title := page.Title
		if title == "" {
			title = "(no title)"
		}
		fmt.Fprintf(out, "%s\n%s\n", title, url)

		modified := time.Unix(page.ModifiedAt, 0).UTC()
		fmt.Fprintf(out, "%s, %d\n", modified.Format("2006-01-02T15:04:05-07:00"), page.ByteSize)

		if err := writeKeywords(out, db, id, keywordCount); err != nil {
			return err
		}
		if err := writeLinks(out, db, page.Links, linkCount); err != nil {
			return err
		}
	}

	return out.Flush()
}

func writeKeywords(out *bufio.Writer, db database.Database, pageID int64, limit int) error {
	// Already ordered by descending combined frequency, then word.
	counts, err := db.TermFrequencies(pageID)
	if err != nil {
		return err
	}
	if limit >= 0 && len(counts) > limit {
		counts = counts[:limit]
	}

	entries := make([]string, len(counts))
	for i, count := range counts {
		entries[i] = fmt.Sprintf("%s %d", count.Word, count.Frequency)
	}
	out.WriteString(strings.Join(entries, "; "))
	out.WriteString("\n")
	return nil
}

func writeLinks(out *bufio.Writer, db database.Database, links database.IntSet, limit int) error {
	urls := make([]string, 0, links.Len())
	for _, id := range links {
		url, err := db.URLText(id)
		if err != nil {
			return err
		}
		urls = append(urls, url)
	}
	slices.Sort(urls)

	if limit >= 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	for _, url := range urls {
		out.WriteString(url)
		out.WriteString("\n")
	}
	return nil
}
