package tabular

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// Store executes read-only statements against the tabular database and
// returns rows with column order preserved.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the tabular store at dsn using the pgx stdlib driver.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open tabular store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping tabular store: %w", err)
	}
	return db, nil
}

// Execute runs query and returns all rows. Anything other than a read
// statement is rejected before it reaches the database.
func (s *Store) Execute(ctx context.Context, query string) ([]domain.Record, error) {
	if err := rejectWrites(query); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTabularStore, "tabular query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, domain.WrapError(domain.ErrTabularStore, "tabular columns", err)
	}

	out := make([]domain.Record, 0, 8)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, domain.WrapError(domain.ErrTabularStore, "tabular scan", err)
		}
		out = append(out, domain.Record{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTabularStore, "tabular rows", err)
	}
	return out, nil
}

// writeKeywords are keywords that make a statement modify data no matter
// where they appear: Postgres executes data-modifying CTE bodies, and
// EXPLAIN ANALYZE runs the statement it plans. ANALYZE and VACUUM are
// maintenance commands that also mutate state.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"TRUNCATE": true, "DROP": true, "ALTER": true, "CREATE": true,
	"GRANT": true, "REVOKE": true, "COPY": true, "CALL": true,
	"ANALYZE": true, "VACUUM": true,
}

func rejectWrites(query string) error {
	trimmed := strings.TrimSpace(query)
	for {
		rest, ok := strings.CutPrefix(trimmed, "--")
		if !ok {
			break
		}
		if _, tail, found := strings.Cut(rest, "\n"); found {
			trimmed = strings.TrimSpace(tail)
			continue
		}
		trimmed = ""
	}
	if trimmed == "" {
		return domain.WrapError(domain.ErrInvalidInput, "tabular query", fmt.Errorf("empty statement"))
	}

	first := strings.ToUpper(firstWord(trimmed))
	switch first {
	case "SELECT", "WITH", "EXPLAIN", "SHOW":
	default:
		return domain.WrapError(domain.ErrTabularWriteRejected, "tabular query",
			fmt.Errorf("statement %q is not read-only", first))
	}

	// A read-shaped head is not enough. Scan the whole statement, skipping
	// quoted literals and comments, for keywords that would make it write.
	if keyword, found := writeKeywordOutsideLiterals(trimmed); found {
		return domain.WrapError(domain.ErrTabularWriteRejected, "tabular query",
			fmt.Errorf("statement embeds %q and is not read-only", keyword))
	}
	return nil
}

func writeKeywordOutsideLiterals(stmt string) (string, bool) {
	i := 0
	for i < len(stmt) {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"':
			i = skipQuoted(stmt, i)
		case c == '-' && i+1 < len(stmt) && stmt[i+1] == '-':
			nl := strings.IndexByte(stmt[i:], '\n')
			if nl < 0 {
				return "", false
			}
			i += nl + 1
		case c == '/' && i+1 < len(stmt) && stmt[i+1] == '*':
			end := strings.Index(stmt[i+2:], "*/")
			if end < 0 {
				return "", false
			}
			i += end + 4
		case isWordByte(c):
			j := i
			for j < len(stmt) && isWordByte(stmt[j]) {
				j++
			}
			word := strings.ToUpper(stmt[i:j])
			if writeKeywords[word] {
				return word, true
			}
			i = j
		default:
			i++
		}
	}
	return "", false
}

// skipQuoted returns the index just past the closing quote. A doubled quote
// inside the region is the SQL escape for the quote character itself.
func skipQuoted(stmt string, start int) int {
	quote := stmt[start]
	i := start + 1
	for i < len(stmt) {
		if stmt[i] == quote {
			if i+1 < len(stmt) && stmt[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}
