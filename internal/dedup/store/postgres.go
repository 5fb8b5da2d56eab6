package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"convergo/internal/dedup/models"
	"convergo/pkg/platform/sentinel"
	txcontext "convergo/pkg/platform/tx"
)

const defaultBatchSize = 500

// Relationship names a foreign-key column in another table that points at
// records of this type. Migrating a loser means re-pointing every matching
// row at the winner.
type Relationship struct {
	Table  string
	Column string
}

// Table maps a record type onto a PostgreSQL table.
type Table struct {
	Descriptor models.Descriptor
	Name       string
	IDColumn   string
	// Columns overrides attribute-to-column names; attributes absent from
	// the map use the attribute name as the column name.
	Columns       map[string]string
	Relationships []Relationship
}

func (t Table) column(attribute string) string {
	if col, ok := t.Columns[attribute]; ok {
		return col
	}
	return attribute
}

// Postgres is the production store. Reads for duplicate discovery go to the
// base connection so the count reflects durable state only; fetches,
// relationship updates, and deletions share one pass transaction that
// Commit finalizes.
type Postgres struct {
	db        *sql.DB
	tables    map[string]Table
	batchSize int

	mu sync.Mutex
	tx *sql.Tx
}

type PostgresOption func(*Postgres)

// WithBatchSize sets how many duplicated values each discovery query page
// fetches. Keeps full-table scans from materializing at once.
func WithBatchSize(n int) PostgresOption {
	return func(s *Postgres) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed store for the given tables.
func NewPostgres(db *sql.DB, tables []Table, opts ...PostgresOption) *Postgres {
	s := &Postgres{
		db:        db,
		tables:    make(map[string]Table, len(tables)),
		batchSize: defaultBatchSize,
	}
	for _, t := range tables {
		if t.IDColumn == "" {
			t.IDColumn = "id"
		}
		s.tables[t.Descriptor.Name] = t
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Postgres) table(recordType string) (Table, error) {
	t, ok := s.tables[recordType]
	if !ok {
		return Table{}, fmt.Errorf("record type %q: %w", recordType, sentinel.ErrUnknownRecordType)
	}
	return t, nil
}

// writer returns the executor for mutations, beginning the pass transaction
// on first use. A caller-supplied transaction in ctx takes precedence.
func (s *Postgres) writer(ctx context.Context) (txcontext.Queryer, error) {
	if t, ok := txcontext.From(ctx); ok {
		return t, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin pass transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// reader returns the executor for fetches: the pass transaction when open,
// so fetches see staged changes, otherwise the base connection.
func (s *Postgres) reader(ctx context.Context) txcontext.Queryer {
	s.mu.Lock()
	fallback := txcontext.Queryer(s.db)
	if s.tx != nil {
		fallback = s.tx
	}
	s.mu.Unlock()
	return txcontext.Executor(ctx, fallback)
}

func (s *Postgres) DuplicatedValues(ctx context.Context, recordType, attribute string) ([]string, error) {
	t, err := s.table(recordType)
	if err != nil {
		return nil, err
	}
	if err := t.Descriptor.ValidateGrouping(attribute); err != nil {
		return nil, err
	}

	col := pq.QuoteIdentifier(t.column(attribute))
	query := fmt.Sprintf(`
		SELECT %[1]s
		FROM %[2]s
		WHERE %[1]s IS NOT NULL
		  AND ($1::text IS NULL OR %[1]s > $1)
		GROUP BY %[1]s
		HAVING COUNT(*) > 1
		ORDER BY %[1]s
		LIMIT $2
	`, col, pq.QuoteIdentifier(t.Name))

	// Pending changes are excluded by construction: the query runs on the
	// base connection, never the pass transaction.
	var values []string
	cursor := sql.NullString{}
	for {
		page, err := s.duplicatedValuesPage(ctx, query, cursor)
		if err != nil {
			return nil, err
		}
		values = append(values, page...)
		if len(page) < s.batchSize {
			return values, nil
		}
		cursor = sql.NullString{String: page[len(page)-1], Valid: true}
	}
}

func (s *Postgres) duplicatedValuesPage(ctx context.Context, query string, cursor sql.NullString) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, cursor, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("query duplicated values: %w", err)
	}
	defer rows.Close()

	var page []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan duplicated value: %w", err)
		}
		page = append(page, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicated values: %w", err)
	}
	return page, nil
}

func (s *Postgres) FetchGroup(ctx context.Context, recordType, attribute, value string) ([]models.Record, error) {
	t, err := s.table(recordType)
	if err != nil {
		return nil, err
	}
	if err := t.Descriptor.ValidateGrouping(attribute); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`,
		pq.QuoteIdentifier(t.IDColumn),
		pq.QuoteIdentifier(t.column(attribute)),
		pq.QuoteIdentifier(t.Name),
		pq.QuoteIdentifier(t.column(attribute)),
		pq.QuoteIdentifier(t.IDColumn),
	)

	rows, err := s.reader(ctx).QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("query group %q=%q: %w", attribute, value, err)
	}
	defer rows.Close()

	var group []models.Record
	for rows.Next() {
		var id sql.NullString
		var v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		if !id.Valid || id.String == "" {
			return nil, fmt.Errorf("group %q=%q: %w", attribute, value, sentinel.ErrNilIdentifier)
		}
		group = append(group, &Row{store: s, table: t, id: id.String, attribute: attribute, value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return group, nil
}

func (s *Postgres) Delete(ctx context.Context, recordType string, rec models.Record) error {
	t, err := s.table(recordType)
	if err != nil {
		return err
	}
	w, err := s.writer(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		pq.QuoteIdentifier(t.Name), pq.QuoteIdentifier(t.IDColumn))
	if _, err := w.ExecContext(ctx, query, rec.Identifier()); err != nil {
		return fmt.Errorf("delete %q/%q: %w", recordType, rec.Identifier(), err)
	}
	return nil
}

func (s *Postgres) Commit(ctx context.Context) error {
	if _, ok := txcontext.From(ctx); ok {
		// Caller owns the transaction and its commit.
		return nil
	}
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		// Nothing staged; a pass with zero duplicates still commits.
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pass: %w", err)
	}
	return nil
}

// Rollback discards the pass transaction and everything staged in it.
func (s *Postgres) Rollback() error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()
	if tx == nil {
		return nil
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback pass: %w", err)
	}
	return nil
}

// Row is a fetched record bound to its store, so relationship migration can
// re-point foreign keys inside the pass transaction.
type Row struct {
	store     *Postgres
	table     Table
	id        string
	attribute string
	value     string
}

func (r *Row) Identifier() string { return r.id }

func (r *Row) GroupingValue(attribute string) (string, bool) {
	if attribute == r.attribute {
		return r.value, true
	}
	return "", false
}

// MoveRelationships re-points every declared foreign-key reference from
// this record to the winner.
func (r *Row) MoveRelationships(ctx context.Context, winner models.Record) error {
	if len(r.table.Relationships) == 0 {
		return nil
	}
	w, err := r.store.writer(ctx)
	if err != nil {
		return err
	}
	for _, rel := range r.table.Relationships {
		query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`,
			pq.QuoteIdentifier(rel.Table),
			pq.QuoteIdentifier(rel.Column),
			pq.QuoteIdentifier(rel.Column),
		)
		if _, err := w.ExecContext(ctx, query, winner.Identifier(), r.id); err != nil {
			return fmt.Errorf("move %s.%s from %q to %q: %w", rel.Table, rel.Column, r.id, winner.Identifier(), err)
		}
	}
	return nil
}
