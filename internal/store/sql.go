package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/models"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// SQLStore implements Store on top of database/sql. Every multi-statement
// mutation runs in a single transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *log.Logger
	now     func() time.Time

	stampMu   sync.Mutex
	lastStamp int64
}

// OpenOptions tunes how OpenSQLStore opens the database.
type OpenOptions struct {
	// DuckDBThreads and DuckDBMemoryLimit are applied as pragmas on each DuckDB connection.
	DuckDBThreads     int
	DuckDBMemoryLimit string
}

// OpenSQLStore opens the database named by driver and dsn and applies the schema.
func OpenSQLStore(ctx context.Context, driverName, dsn string, opts OpenOptions, logger *log.Logger) (*SQLStore, error) {
	d, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("store")

	var db *sql.DB
	switch d.Name {
	case "duckdb":
		connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
			for _, pragma := range duckDBPragmas(opts) {
				if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
					logger.Warn("pragma failed", "pragma", pragma, "err", err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
		}
		db = sql.OpenDB(connector)
	default:
		db, err = sql.Open(d.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", d.Name, err)
		}
	}
	if d.Name == "sqlite" {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}

	s, err := NewSQLStore(ctx, db, d, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("layout database ready", "driver", d.Name)
	return s, nil
}

// NewSQLStore wraps an open database and ensures the schema exists.
func NewSQLStore(ctx context.Context, db *sql.DB, d Dialect, logger *log.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: d, log: logger, now: time.Now}, nil
}

func duckDBPragmas(opts OpenOptions) []string {
	var pragmas []string
	if opts.DuckDBThreads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.DuckDBThreads))
	}
	if opts.DuckDBMemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.DuckDBMemoryLimit))
	}
	return append(pragmas, "PRAGMA enable_progress_bar=false")
}

// stamp returns a strictly increasing insertion stamp used to order components.
func (s *SQLStore) stamp() int64 {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	ts := s.now().UnixNano()
	if ts <= s.lastStamp {
		ts = s.lastStamp + 1
	}
	s.lastStamp = ts
	return ts
}

// DB exposes the underlying database for tests and tooling.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect in use.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction that is rolled back unless fn succeeds.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const (
	layoutColumns    = `id, name, width, height, floor, area`
	componentColumns = `id, layout_id, type, x, y, width, height, rotation, shape_points, code, props, created_at`
	userColumns      = `id, username, password, role`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanLayout(row scanner) (models.Layout, error) {
	var l models.Layout
	var floor, area sql.NullString
	if err := row.Scan(&l.ID, &l.Name, &l.Width, &l.Height, &floor, &area); err != nil {
		return models.Layout{}, err
	}
	if floor.Valid {
		l.Floor = &floor.String
	}
	if area.Valid {
		l.Area = &area.String
	}
	return l, nil
}

func scanComponentRow(row scanner) (componentRow, error) {
	var r componentRow
	err := row.Scan(&r.ID, &r.LayoutID, &r.Type, &r.X, &r.Y, &r.Width, &r.Height,
		&r.Rotation, &r.ShapePoints, &r.Code, &r.Props, &r.CreatedAt)
	return r, err
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	return u, err
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("query %s %s: %w", kind, id, err)
}

// ListLayouts returns all layouts ordered by name.
func (s *SQLStore) ListLayouts(ctx context.Context) ([]models.Layout, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+layoutColumns+` FROM layouts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	layouts := make([]models.Layout, 0)
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		layouts = append(layouts, l)
	}
	return layouts, rows.Err()
}

// CreateLayout inserts l under a newly generated id.
func (s *SQLStore) CreateLayout(ctx context.Context, l *models.Layout) error {
	l.ID = uuid.New().String()
	return s.insertLayout(ctx, s.db, l)
}

func (s *SQLStore) insertLayout(ctx context.Context, q queryer, l *models.Layout) error {
	_, err := q.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO layouts (`+layoutColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		l.ID, l.Name, l.Width, l.Height, nullable(l.Floor), nullable(l.Area))
	if err != nil {
		return fmt.Errorf("insert layout: %w", err)
	}
	return nil
}

// GetLayout retrieves a layout by id.
func (s *SQLStore) GetLayout(ctx context.Context, id string) (*models.Layout, error) {
	return s.getLayout(ctx, s.db, id)
}

func (s *SQLStore) getLayout(ctx context.Context, q queryer, id string) (*models.Layout, error) {
	row := q.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+layoutColumns+` FROM layouts WHERE id = ?`), id)
	l, err := scanLayout(row)
	if err != nil {
		return nil, notFound(err, "layout", id)
	}
	return &l, nil
}

// GetLayoutDetail reads the layout row and all of its component rows in one
// transaction, decoding the stored shape points and props.
func (s *SQLStore) GetLayoutDetail(ctx context.Context, id string) (*models.LayoutDetail, error) {
	var detail *models.LayoutDetail
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		l, err := s.getLayout(ctx, tx, id)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, s.dialect.Rebind(
			`SELECT `+componentColumns+` FROM components WHERE layout_id = ? ORDER BY created_at, id`), id)
		if err != nil {
			return fmt.Errorf("list components: %w", err)
		}
		defer rows.Close()

		detail = &models.LayoutDetail{Layout: *l, Components: make([]models.Component, 0)}
		for rows.Next() {
			r, err := scanComponentRow(rows)
			if err != nil {
				return fmt.Errorf("scan component: %w", err)
			}
			detail.Components = append(detail.Components, r.decode())
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateLayout applies patch to the layout with the given id.
func (s *SQLStore) UpdateLayout(ctx context.Context, id string, patch models.LayoutPatch) (*models.Layout, error) {
	var updated *models.Layout
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		l, err := s.getLayout(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(l)
		_, err = tx.ExecContext(ctx, s.dialect.Rebind(
			`UPDATE layouts SET name = ?, width = ?, height = ?, floor = ?, area = ? WHERE id = ?`),
			l.Name, l.Width, l.Height, nullable(l.Floor), nullable(l.Area), id)
		if err != nil {
			return fmt.Errorf("update layout: %w", err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLayout removes a layout and its components in one transaction.
func (s *SQLStore) DeleteLayout(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getLayout(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM components WHERE layout_id = ?`), id); err != nil {
			return fmt.Errorf("delete components: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM layouts WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete layout: %w", err)
		}
		s.log.Debug("layout deleted", "id", id)
		return nil
	})
}

// CreateComponent inserts c under a newly generated id. c.LayoutID must exist.
func (s *SQLStore) CreateComponent(ctx context.Context, c *models.Component) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getLayout(ctx, tx, c.LayoutID); err != nil {
			return err
		}
		c.ID = uuid.New().String()
		row, err := encodeComponent(c, s.stamp())
		if err != nil {
			return err
		}
		if err := s.insertComponent(ctx, tx, row); err != nil {
			return err
		}
		*c = row.decode()
		return nil
	})
}

func (s *SQLStore) insertComponent(ctx context.Context, q queryer, r componentRow) error {
	_, err := q.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO components (`+componentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.LayoutID, r.Type, r.X, r.Y, r.Width, r.Height, r.Rotation,
		r.ShapePoints, r.Code, r.Props, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert component: %w", err)
	}
	return nil
}

// GetComponent retrieves a component by id.
func (s *SQLStore) GetComponent(ctx context.Context, id string) (*models.Component, error) {
	r, err := s.getComponentRow(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	c := r.decode()
	return &c, nil
}

func (s *SQLStore) getComponentRow(ctx context.Context, q queryer, id string) (componentRow, error) {
	row := q.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+componentColumns+` FROM components WHERE id = ?`), id)
	r, err := scanComponentRow(row)
	if err != nil {
		return componentRow{}, notFound(err, "component", id)
	}
	return r, nil
}

// UpdateComponent applies patch to the component with the given id.
func (s *SQLStore) UpdateComponent(ctx context.Context, id string, patch models.ComponentPatch) (*models.Component, error) {
	var updated models.Component
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := s.getComponentRow(ctx, tx, id)
		if err != nil {
			return err
		}
		c := r.decode()
		patch.Apply(&c)

		next, err := encodeComponent(&c, r.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.dialect.Rebind(
			`UPDATE components SET type = ?, x = ?, y = ?, width = ?, height = ?, rotation = ?,
				shape_points = ?, code = ?, props = ? WHERE id = ?`),
			next.Type, next.X, next.Y, next.Width, next.Height, next.Rotation,
			next.ShapePoints, next.Code, next.Props, id)
		if err != nil {
			return fmt.Errorf("update component: %w", err)
		}
		updated = next.decode()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComponent removes a component.
func (s *SQLStore) DeleteComponent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM components WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateUser inserts u under a newly generated id unless the username is taken.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getUserBy(ctx, tx, "username", u.Username); err == nil {
			return fmt.Errorf("user %s: %w", u.Username, ErrDuplicate)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		u.ID = uuid.New().String()
		return s.insertUser(ctx, tx, u)
	})
}

func (s *SQLStore) insertUser(ctx context.Context, q queryer, u *models.User) error {
	_, err := q.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.Password, u.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// getUserBy looks a user up by a fixed column name (never caller input).
func (s *SQLStore) getUserBy(ctx context.Context, q queryer, column, value string) (*models.User, error) {
	row := q.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", value)
	}
	return &u, nil
}

// GetUser retrieves a user by id.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserBy(ctx, s.db, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, s.db, "username", username)
}

// ListUsers returns all users ordered by username.
func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole changes the role of a user.
func (s *SQLStore) UpdateUserRole(ctx context.Context, id string, role string) (*models.User, error) {
	var updated *models.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := s.getUserBy(ctx, tx, "id", id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`UPDATE users SET role = ? WHERE id = ?`), role, id); err != nil {
			return fmt.Errorf("update user role: %w", err)
		}
		u.Role = role
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReplaceAll deletes every row and inserts ds in one transaction.
// Records without ids are given fresh ones.
func (s *SQLStore) ReplaceAll(ctx context.Context, ds *models.Dataset) error {
	start := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.clearTables(ctx, tx); err != nil {
			return err
		}
		for i := range ds.Users {
			if ds.Users[i].ID == "" {
				ds.Users[i].ID = uuid.New().String()
			}
			if err := s.insertUser(ctx, tx, &ds.Users[i]); err != nil {
				return err
			}
		}
		for i := range ds.Layouts {
			if ds.Layouts[i].ID == "" {
				ds.Layouts[i].ID = uuid.New().String()
			}
			if err := s.insertLayout(ctx, tx, &ds.Layouts[i]); err != nil {
				return err
			}
		}
		known := make(map[string]struct{}, len(ds.Layouts))
		for _, l := range ds.Layouts {
			known[l.ID] = struct{}{}
		}
		for i := range ds.Components {
			c := &ds.Components[i]
			if _, ok := known[c.LayoutID]; !ok {
				return fmt.Errorf("component %d layout %s: %w", i, c.LayoutID, ErrNotFound)
			}
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			row, err := encodeComponent(c, s.stamp())
			if err != nil {
				return err
			}
			if err := s.insertComponent(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("dataset replaced",
		"users", len(ds.Users), "layouts", len(ds.Layouts), "components", len(ds.Components),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// clearTables empties every table, recreating them where the dialect needs it.
func (s *SQLStore) clearTables(ctx context.Context, tx *sql.Tx) error {
	tables := []string{"components", "layouts", "users"}
	if !s.dialect.recreateOnReplace {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	for _, stmt := range s.dialect.Schema() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("recreate schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
