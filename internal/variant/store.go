package variant

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/fulcrumgenomics/fgprimer/internal/vcf"
)

// Store is a file-backed Lookup over a DuckDB database. Each query issues a
// positional range fetch against the open database, so catalogs far larger
// than memory can be consulted.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens an existing variant database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open variant store: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// BuildStore creates a variant database at path from one or more VCF files,
// keeping passing records. An existing database at path is appended to.
func BuildStore(path string, vcfPaths []string) (*Store, error) {
	s, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.createSchema(); err != nil {
		s.Close()
		return nil, err
	}
	for _, vcfPath := range vcfPaths {
		if err := s.loadVCF(vcfPath); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS variants (
			id      VARCHAR,
			chrom   VARCHAR NOT NULL,
			pos     INTEGER NOT NULL,
			end_    INTEGER NOT NULL,
			ref     VARCHAR NOT NULL,
			alt     VARCHAR NOT NULL,
			maf     DOUBLE
		);
		CREATE INDEX IF NOT EXISTS idx_variants_range ON variants (chrom, pos, end_);
	`)
	if err != nil {
		return fmt.Errorf("create variants schema: %w", err)
	}
	return nil
}

func (s *Store) loadVCF(path string) error {
	parser, err := vcf.NewParser(path)
	if err != nil {
		return fmt.Errorf("open variant source %s: %w", path, err)
	}
	defer parser.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin variant load: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO variants (id, chrom, pos, end_, ref, alt, maf) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare variant insert: %w", err)
	}
	defer stmt.Close()

	for {
		r, err := parser.Next()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("read variant source %s: %w", path, err)
		}
		if r == nil {
			break
		}
		if !r.Passes() {
			continue
		}
		v := FromRecord(r)
		m := v.ToMapping()
		var maf interface{}
		if v.MAF != nil {
			maf = *v.MAF
		}
		if _, err := stmt.Exec(v.ID, v.Chrom, v.Pos, m.End, v.Ref, v.Alt, maf); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert variant %s: %w", v, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit variant load: %w", err)
	}
	return nil
}

// Query implements Lookup via a positional range fetch.
func (s *Store) Query(chrom string, start, end int, minMaf float64, includeMissingMafs bool) ([]*Variant, error) {
	rows, err := s.db.Query(`
		SELECT id, chrom, pos, ref, alt, maf
		FROM variants
		WHERE chrom = ? AND pos <= ? AND end_ >= ?
		ORDER BY pos
	`, chrom, end, start)
	if err != nil {
		return nil, fmt.Errorf("query variants %s:%d-%d: %w", chrom, start, end, err)
	}
	defer rows.Close()

	var out []*Variant
	for rows.Next() {
		var v Variant
		var maf sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.Chrom, &v.Pos, &v.Ref, &v.Alt, &maf); err != nil {
			return nil, fmt.Errorf("scan variant row: %w", err)
		}
		if maf.Valid {
			f := maf.Float64
			v.MAF = &f
		}
		if passesMAF(&v, minMaf, includeMissingMafs) {
			out = append(out, &v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}
	return out, nil
}

// Count returns the number of stored variants.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM variants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count variants: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
