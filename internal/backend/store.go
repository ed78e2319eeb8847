package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/model"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("task not found")

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// Store persists tasks in SQLite (default) or Postgres (postgres:// DSNs).
type Store struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// Open opens the database and runs migrations. dsn is either a file path for
// SQLite or a postgres:// URL.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dialect := dialectSQLite
	driverDSN := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialect = dialectPostgres
	} else {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		driverDSN = "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open(dialect, driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == dialectSQLite {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	s := &Store{db: conn, dialect: dialect, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			due_date TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'todo',
			ord DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_ord ON tasks(ord);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// columns maps wire field names to columns. Only these can be sorted or filtered on.
var columns = map[string]string{
	"id":       "id",
	"text":     "text",
	"dueDate":  "due_date",
	"priority": "priority",
	"status":   "status",
	"order":    "ord",
}

type Cond struct {
	Field string
	Not   bool
	Value string
}

type SortKey struct {
	Field string
	Desc  bool
}

// ListQuery mirrors json-server list parameters. Limit 0 means unlimited.
type ListQuery struct {
	Where []Cond
	Sort  []SortKey
	Page  int
	Limit int
}

const selectCols = `SELECT id, text, due_date, priority, status, ord FROM tasks`

// List returns the requested slice and the total number of matching rows.
func (s *Store) List(ctx context.Context, q ListQuery) ([]model.Task, int, error) {
	var where []string
	var args []any
	for _, c := range q.Where {
		col, ok := columns[c.Field]
		if !ok {
			return nil, 0, fmt.Errorf("unknown filter field: %s", c.Field)
		}
		op := "="
		if c.Not {
			op = "<>"
		}
		where = append(where, col+" "+op+" ?")
		args = append(args, c.Value)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM tasks`+clause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	var order []string
	for _, k := range q.Sort {
		col, ok := columns[k.Field]
		if !ok {
			return nil, 0, fmt.Errorf("unknown sort field: %s", k.Field)
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		order = append(order, col+" "+dir)
	}
	if len(order) == 0 {
		order = append(order, "created_at ASC")
	}

	stmt := selectCols + clause + " ORDER BY " + strings.Join(order, ", ")
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, (page-1)*q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(stmt), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectCols+` WHERE id = ?`), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

// Create inserts t. Missing id, status and order are assigned here; a missing
// order lands below the current minimum.
func (s *Store) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if strings.TrimSpace(t.ID) == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return model.Task{}, err
		}
		t.ID = id.String()
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if t.Order == nil {
		var lowest sql.NullFloat64
		if err := tx.QueryRowContext(ctx, `SELECT MIN(ord) FROM tasks`).Scan(&lowest); err != nil {
			return model.Task{}, fmt.Errorf("min order: %w", err)
		}
		o := 0.0
		if lowest.Valid {
			o = lowest.Float64 - 1
		}
		t.Order = model.Float(o)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO tasks(id, text, due_date, priority, status, ord, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.Text, t.DueDate, string(t.Priority), string(t.Status), t.OrderValue(), time.Now().UTC().UnixNano())
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	s.logger.Debug("task created", slog.String("id", t.ID))
	return t, nil
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanTask(tx.QueryRowContext(ctx, s.rebind(selectCols+` WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	next := p.Apply(cur)
	_, err = tx.ExecContext(ctx, s.rebind(`UPDATE tasks SET text = ?, due_date = ?, priority = ?, status = ?, ord = ? WHERE id = ?`),
		next.Text, next.DueDate, string(next.Priority), string(next.Status), next.OrderValue(), id)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	return next, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var (
		t                model.Task
		priority, status string
		ord              float64
	)
	if err := row.Scan(&t.ID, &t.Text, &t.DueDate, &priority, &status, &ord); err != nil {
		return model.Task{}, err
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	t.Order = model.Float(ord)
	return t, nil
}
