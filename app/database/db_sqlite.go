package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDatabase persists the index in SQLite. Link and position sets are
// stored as JSON arrays and re-validated on every read and write; the
// referential rules (restrict on delete, cascade on rename) are enforced in
// application code inside one transaction so they hold on storage engines
// without trigger support.
type SQLiteDatabase struct {
	conn *sql.DB
}

//go:embed db_sqlite_setup.sql
var setupCommands string

func (db *SQLiteDatabase) Setup() error {
	_, err := db.conn.Exec(setupCommands)
	return err
}

// integrity wraps a storage-level failure so callers can match ErrIntegrity.
func integrity(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIntegrity, err)
}

func (db *SQLiteDatabase) intern(table string, text string) (int64, error) {
	if _, err := db.conn.Exec("INSERT OR IGNORE INTO "+table+" (text) VALUES (?);", text); err != nil {
		return 0, integrity(err)
	}

	var id int64
	err := db.conn.QueryRow("SELECT id FROM "+table+" WHERE text = ?;", text).Scan(&id)
	if err != nil {
		return 0, integrity(err)
	}
	return id, nil
}

func (db *SQLiteDatabase) resolve(table string, id int64) (string, error) {
	var text string
	err := db.conn.QueryRow("SELECT text FROM "+table+" WHERE id = ?;", id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return "", integrity(err)
	}
	return text, nil
}

func (db *SQLiteDatabase) InternURL(text string) (int64, error) {
	return db.intern("urls", text)
}

func (db *SQLiteDatabase) URLText(id int64) (string, error) {
	return db.resolve("urls", id)
}

func (db *SQLiteDatabase) InternWord(text string) (int64, error) {
	return db.intern("words", text)
}

func (db *SQLiteDatabase) WordText(id int64) (string, error) {
	return db.resolve("words", id)
}

func (db *SQLiteDatabase) SetRedirect(id int64, target int64) error {
	if _, err := db.resolve("urls", target); err != nil {
		return err
	}

	res, err := db.conn.Exec("UPDATE urls SET redirect_id = ? WHERE id = ?;", target, id)
	if err != nil {
		return integrity(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return integrity(err)
	} else if n == 0 {
		return fmt.Errorf("urls id %d: %w", id, ErrNotFound)
	}
	return nil
}

func postingsTable(variant Variant) string {
	if variant == VariantTitle {
		return "postings_title"
	}
	return "postings_body"
}

func (db *SQLiteDatabase) PutPage(urlID int64, page *PageData) error {
	if err := page.Links.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLinkSet, err)
	}
	for _, postings := range []map[int64]IntSet{page.BodyPostings, page.TitlePostings} {
		for wordID, positions := range postings {
			if err := positions.Validate(); err != nil {
				return fmt.Errorf("%w: word %d: %v", ErrInvalidPositionSet, wordID, err)
			}
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return integrity(err)
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow("SELECT 1 FROM urls WHERE id = ?;", urlID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: page for unknown url id %d", ErrIntegrity, urlID)
		}
		return integrity(err)
	}
	for _, link := range page.Links {
		if err := tx.QueryRow("SELECT 1 FROM urls WHERE id = ?;", link).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: link to unknown url id %d", ErrInvalidLinkSet, link)
			}
			return integrity(err)
		}
	}

	// Replace the page and all of its postings as one unit. A page that was
	// indexed before loses its old postings entirely; partial updates are
	// never visible.
	for _, table := range []string{"postings_body", "postings_title"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE page_id = ?;", urlID); err != nil {
			return integrity(err)
		}
	}

	_, err = tx.Exec(
		"REPLACE INTO pages (url_id, modified_at, byte_size, title, markup, plaintext, links) VALUES (?, ?, ?, ?, ?, ?, ?);",
		urlID, page.ModifiedAt, page.ByteSize, page.Title, page.Markup, page.Plaintext, page.Links.Encode(),
	)
	if err != nil {
		return integrity(err)
	}

	for variant, postings := range map[Variant]map[int64]IntSet{
		VariantBody:  page.BodyPostings,
		VariantTitle: page.TitlePostings,
	} {
		table := postingsTable(variant)
		for wordID, positions := range postings {
			if err := tx.QueryRow("SELECT 1 FROM words WHERE id = ?;", wordID).Scan(&one); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: posting for unknown word id %d", ErrIntegrity, wordID)
				}
				return integrity(err)
			}
			_, err := tx.Exec(
				"INSERT INTO "+table+" (page_id, word_id, positions, frequency) VALUES (?, ?, ?, ?);",
				urlID, wordID, positions.Encode(), positions.Len(),
			)
			if err != nil {
				return integrity(err)
			}
		}
	}

	return integrity(tx.Commit())
}

func (db *SQLiteDatabase) Page(urlID int64) (*PageData, error) {
	page := &PageData{}
	var links string
	err := db.conn.QueryRow(
		"SELECT modified_at, byte_size, title, markup, plaintext, links FROM pages WHERE url_id = ?;", urlID,
	).Scan(&page.ModifiedAt, &page.ByteSize, &page.Title, &page.Markup, &page.Plaintext, &links)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page for url id %d: %w", urlID, ErrNotFound)
	}
	if err != nil {
		return nil, integrity(err)
	}

	if page.Links, err = ParseIntSet(links); err != nil {
		return nil, integrity(err)
	}

	page.BodyPostings = map[int64]IntSet{}
	page.TitlePostings = map[int64]IntSet{}
	for variant, postings := range map[Variant]map[int64]IntSet{
		VariantBody:  page.BodyPostings,
		VariantTitle: page.TitlePostings,
	} {
		rows, err := db.conn.Query("SELECT word_id, positions, frequency FROM "+postingsTable(variant)+" WHERE page_id = ?;", urlID)
		if err != nil {
			return nil, integrity(err)
		}
		for rows.Next() {
			var wordID, frequency int64
			var text string
			if err := rows.Scan(&wordID, &text, &frequency); err != nil {
				rows.Close()
				return nil, integrity(err)
			}
			positions, err := ParseIntSet(text)
			if err != nil {
				rows.Close()
				return nil, integrity(err)
			}
			if int64(positions.Len()) != frequency {
				rows.Close()
				return nil, fmt.Errorf("%w: frequency %d does not match %d positions for word %d on page %d",
					ErrIntegrity, frequency, positions.Len(), wordID, urlID)
			}
			postings[wordID] = positions
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, integrity(err)
		}
		rows.Close()
	}

	return page, nil
}

// linkSets reads every page's id and decoded link set inside the given
// transaction. Used by the delete/rename referential checks.
func linkSets(tx *sql.Tx) (map[int64]IntSet, error) {
	rows, err := tx.Query("SELECT url_id, links FROM pages;")
	if err != nil {
		return nil, integrity(err)
	}
	defer rows.Close()

	sets := map[int64]IntSet{}
	for rows.Next() {
		var pageID int64
		var text string
		if err := rows.Scan(&pageID, &text); err != nil {
			return nil, integrity(err)
		}
		set, err := ParseIntSet(text)
		if err != nil {
			return nil, integrity(err)
		}
		sets[pageID] = set
	}
	if err := rows.Err(); err != nil {
		return nil, integrity(err)
	}
	return sets, nil
}

func (db *SQLiteDatabase) DeleteURL(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return integrity(err)
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow("SELECT 1 FROM pages WHERE url_id = ?;", id).Scan(&one); err == nil {
		return fmt.Errorf("url id %d has an indexed page: %w", id, ErrReferenced)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return integrity(err)
	}
	if err := tx.QueryRow("SELECT 1 FROM urls WHERE redirect_id = ?;", id).Scan(&one); err == nil {
		return fmt.Errorf("url id %d is a redirect target: %w", id, ErrReferenced)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return integrity(err)
	}

	sets, err := linkSets(tx)
	if err != nil {
		return err
	}
	for pageID, links := range sets {
		if links.Contains(id) {
			return fmt.Errorf("url id %d is linked from page %d: %w", id, pageID, ErrReferenced)
		}
	}

	res, err := tx.Exec("DELETE FROM urls WHERE id = ?;", id)
	if err != nil {
		return integrity(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return integrity(err)
	} else if n == 0 {
		return fmt.Errorf("url id %d: %w", id, ErrNotFound)
	}

	return integrity(tx.Commit())
}

func (db *SQLiteDatabase) RenameURL(oldID int64, newID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return integrity(err)
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow("SELECT 1 FROM urls WHERE id = ?;", newID).Scan(&one); err == nil {
		return fmt.Errorf("%w: url id %d already exists", ErrIntegrity, newID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return integrity(err)
	}
	if err := tx.QueryRow("SELECT 1 FROM urls WHERE id = ?;", oldID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("url id %d: %w", oldID, ErrNotFound)
		}
		return integrity(err)
	}

	// The link-set rewrite happens before the row moves so the sets are read
	// in a consistent state; the new id is deduplicated against any existing
	// occurrence by MakeIntSet.
	sets, err := linkSets(tx)
	if err != nil {
		return err
	}
	for pageID, links := range sets {
		if !links.Contains(oldID) {
			continue
		}
		rewritten := make([]int64, 0, links.Len())
		for _, v := range links {
			if v == oldID {
				v = newID
			}
			rewritten = append(rewritten, v)
		}
		if _, err := tx.Exec("UPDATE pages SET links = ? WHERE url_id = ?;", MakeIntSet(rewritten).Encode(), pageID); err != nil {
			return integrity(err)
		}
	}

	for _, stmt := range []string{
		"UPDATE urls SET id = ? WHERE id = ?;",
		"UPDATE urls SET redirect_id = ? WHERE redirect_id = ?;",
		"UPDATE pages SET url_id = ? WHERE url_id = ?;",
		"UPDATE postings_body SET page_id = ? WHERE page_id = ?;",
		"UPDATE postings_title SET page_id = ? WHERE page_id = ?;",
	} {
		if _, err := tx.Exec(stmt, newID, oldID); err != nil {
			return integrity(err)
		}
	}

	return integrity(tx.Commit())
}

func (db *SQLiteDatabase) PostingsFor(wordID int64, variant Variant) ([]Posting, error) {
	rows, err := db.conn.Query(
		"SELECT page_id, positions, frequency FROM "+postingsTable(variant)+" WHERE word_id = ? ORDER BY page_id;", wordID,
	)
	if err != nil {
		return nil, integrity(err)
	}
	defer rows.Close()

	postings := []Posting{}
	for rows.Next() {
		var posting Posting
		var text string
		if err := rows.Scan(&posting.PageID, &text, &posting.Frequency); err != nil {
			return nil, integrity(err)
		}
		if posting.Positions, err = ParseIntSet(text); err != nil {
			return nil, integrity(err)
		}
		if int64(posting.Positions.Len()) != posting.Frequency {
			return nil, fmt.Errorf("%w: frequency %d does not match %d positions for word %d on page %d",
				ErrIntegrity, posting.Frequency, posting.Positions.Len(), wordID, posting.PageID)
		}
		postings = append(postings, posting)
	}
	return postings, integrity(rows.Err())
}

func (db *SQLiteDatabase) PageCount() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pages;").Scan(&count)
	return count, integrity(err)
}

func (db *SQLiteDatabase) PageIDs() ([]int64, error) {
	rows, err := db.conn.Query("SELECT url_id FROM pages ORDER BY url_id;")
	if err != nil {
		return nil, integrity(err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, integrity(err)
		}
		ids = append(ids, id)
	}
	return ids, integrity(rows.Err())
}

func (db *SQLiteDatabase) MaxFrequency(pageID int64, variant Variant) (int64, error) {
	var max int64
	err := db.conn.QueryRow("SELECT COALESCE(MAX(frequency), 0) FROM "+postingsTable(variant)+" WHERE page_id = ?;", pageID).Scan(&max)
	return max, integrity(err)
}

func (db *SQLiteDatabase) TermFrequencies(pageID int64) ([]TermCount, error) {
	rows, err := db.conn.Query(`
		SELECT words.text, SUM(occurrences.frequency) AS total
		FROM (
			SELECT word_id, frequency FROM postings_body WHERE page_id = ?
			UNION ALL
			SELECT word_id, frequency FROM postings_title WHERE page_id = ?
		) AS occurrences
		JOIN words ON words.id = occurrences.word_id
		GROUP BY occurrences.word_id
		ORDER BY total DESC, words.text;
		`, pageID, pageID)
	if err != nil {
		return nil, integrity(err)
	}
	defer rows.Close()

	counts := []TermCount{}
	for rows.Next() {
		var count TermCount
		if err := rows.Scan(&count.Word, &count.Frequency); err != nil {
			return nil, integrity(err)
		}
		counts = append(counts, count)
	}
	return counts, integrity(rows.Err())
}

func SQLiteFromFile(fileName string) (*SQLiteDatabase, error) {
	conn, err := sql.Open("sqlite3", fileName)

	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{conn}, nil
}

func SQLite(conn *sql.DB) (*SQLiteDatabase, error) {
	return &SQLiteDatabase{conn}, nil
}
