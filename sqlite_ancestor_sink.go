package tsinfer

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAncestorSink is an AncestorSink backed by a single-table SQLite
// database, grounded on the teacher's OpenSQLiteDB / create-table /
// prepared-statement / transaction-commit shape
// (_examples/kentwait-contagion/sqlite_logger.go), collapsed to one table
// of ancestors instead of one table per simulation metric.
type SQLiteAncestorSink struct {
	db      *sql.DB
	insert  *sql.Stmt
	tx      *sql.Tx
	count   int
}

// OpenSQLiteAncestorSink opens (creating if needed) a SQLite database at
// path and prepares it to receive ancestors in append order.
func OpenSQLiteAncestorSink(path string) (*SQLiteAncestorSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`create table if not exists Ancestor (
		id integer not null primary key,
		start integer, end_pos integer, time integer,
		focal_sites text, haplotype text, tag text
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := tx.Prepare(`insert into Ancestor(id, start, end_pos, time, focal_sites, haplotype, tag) values(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	var n int
	if err := db.QueryRow(`select count(*) from Ancestor`).Scan(&n); err != nil {
		stmt.Close()
		tx.Rollback()
		db.Close()
		return nil, err
	}
	return &SQLiteAncestorSink{db: db, insert: stmt, tx: tx, count: n}, nil
}

// Append assigns the next ascending id and inserts the record within the
// sink's open transaction. Each row is stamped with an opaque entity tag
// (NewEntityTag) so rows can be cross-referenced from external provenance
// records without leaking the dense integer id as a stable identifier.
func (s *SQLiteAncestorSink) Append(start, end int, t uint32, focalSites []int, haplotype []uint8) (int, error) {
	id := s.count
	focalJSON, err := json.Marshal(focalSites)
	if err != nil {
		return 0, err
	}
	hapJSON, err := json.Marshal(haplotype)
	if err != nil {
		return 0, err
	}
	tag := NewEntityTag()
	if _, err := s.insert.Exec(id, start, end, t, string(focalJSON), string(hapJSON), tag); err != nil {
		return 0, err
	}
	s.count++
	return id, nil
}

func (s *SQLiteAncestorSink) Len() int { return s.count }

// Get retrieves a previously appended ancestor, flushing the open
// transaction first so the row is visible to reads.
func (s *SQLiteAncestorSink) Get(id int) (*Ancestor, error) {
	if id < 0 || id >= s.count {
		return nil, invalidInputf("ancestor id %d out of range [0, %d)", id, s.count)
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`select start, end_pos, time, focal_sites, haplotype, tag from Ancestor where id = ?`, id)
	var start, end int
	var t uint32
	var focalJSON, hapJSON, tag string
	if err := row.Scan(&start, &end, &t, &focalJSON, &hapJSON, &tag); err != nil {
		return nil, err
	}
	var focalSites []int
	var haplotype []uint8
	if err := json.Unmarshal([]byte(focalJSON), &focalSites); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hapJSON), &haplotype); err != nil {
		return nil, err
	}
	return &Ancestor{ID: id, Start: start, End: end, Time: t, FocalSites: focalSites, Haplotype: haplotype}, nil
}

// All retrieves every stored ancestor in ascending id order.
func (s *SQLiteAncestorSink) All() []*Ancestor {
	out := make([]*Ancestor, 0, s.count)
	for i := 0; i < s.count; i++ {
		a, err := s.Get(i)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Flush commits the sink's open transaction and starts a fresh one, making
// previously appended rows visible to readers.
func (s *SQLiteAncestorSink) Flush() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing ancestor sink transaction: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`insert into Ancestor(id, start, end_pos, time, focal_sites, haplotype, tag) values(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	s.tx = tx
	s.insert = stmt
	return nil
}

// Close flushes and closes the underlying database handle.
func (s *SQLiteAncestorSink) Close() error {
	if err := s.tx.Commit(); err != nil {
		return err
	}
	return s.db.Close()
}
