package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/options"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS associations (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	serial_number    TEXT NOT NULL,
	harman_id        TEXT NOT NULL DEFAULT '',
	factory_id       INTEGER NOT NULL DEFAULT 0,
	software_version TEXT NOT NULL DEFAULT '',
	device_type      TEXT NOT NULL DEFAULT '',
	user_id          TEXT NOT NULL,
	vehicle_id       TEXT NOT NULL DEFAULT '',
	country          TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL,
	created_at_ns    INTEGER NOT NULL,
	updated_at_ns    INTEGER NOT NULL,
	updated_by       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_associations_device ON associations(serial_number, user_id);
CREATE INDEX IF NOT EXISTS idx_associations_state ON associations(serial_number, state);

CREATE TABLE IF NOT EXISTS association_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	association_id INTEGER NOT NULL REFERENCES associations(id),
	prior_state    TEXT NOT NULL,
	new_state      TEXT NOT NULL,
	actor          TEXT NOT NULL,
	changed_at_ns  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_association ON association_history(association_id);

CREATE TABLE IF NOT EXISTS vins (
	serial_number TEXT PRIMARY KEY,
	value         TEXT NOT NULL,
	dummy         BOOLEAN NOT NULL DEFAULT 0,
	model_name    TEXT NOT NULL DEFAULT ''
);
`

const selectAssociation = `
SELECT id, serial_number, harman_id, factory_id, software_version, device_type,
       user_id, vehicle_id, country, state, created_at_ns, updated_at_ns, updated_by
FROM associations`

var _ core.AssociationRepository = (*SQLite)(nil)

// SQLite is the association store.
type SQLite struct {
	db *sql.DB
}

// HistoryEntry is one recorded state change.
type HistoryEntry struct {
	AssociationID int64
	PriorState    model.State
	NewState      model.State
	Actor         string
	ChangedAt     time.Time
}

// NewSQLite opens the database at opts.Path and applies the schema.
func NewSQLite(ctx context.Context, opts *options.SqliteOptions) (*SQLite, error) {
	// modernc.org/sqlite applies _pragma to every pooled connection.
	// Immediate transactions take the write lock up front so conditional
	// state writes are serialized.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_txlock=immediate",
		opts.Path, opts.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	log.Info("Association store ready", "path", opts.Path, "schemaVersion", schemaVersion)
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, id int64) (*model.Association, error) {
	row := s.db.QueryRowContext(ctx, selectAssociation+` WHERE id = ?`, id)
	a, err := scanAssociation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("association %d: %w", id, core.ErrNotFound)
	}
	return a, err
}

func (s *SQLite) FindByDevice(ctx context.Context, serialNumber, userID string) (*model.Association, error) {
	row := s.db.QueryRowContext(ctx,
		selectAssociation+` WHERE serial_number = ? AND user_id = ? ORDER BY updated_at_ns DESC, id DESC LIMIT 1`,
		serialNumber, userID)
	a, err := scanAssociation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s of user %s: %w", serialNumber, userID, core.ErrNotFound)
	}
	return a, err
}

func (s *SQLite) Create(ctx context.Context, a *model.Association) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO associations (serial_number, harman_id, factory_id, software_version, device_type,
	                          user_id, vehicle_id, country, state, created_at_ns, updated_at_ns, updated_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SerialNumber, a.HarmanID, a.FactoryID, a.SoftwareVersion, a.DeviceType,
		a.UserID, a.VehicleID, a.Country, string(a.State),
		a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano(), a.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert association: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read association id: %w", err)
	}
	a.ID = id
	return nil
}

// UpdateState moves an association from one state to another and appends a
// history row in one transaction. The write only applies while the stored
// state is still from, and a move into an open state only applies while no
// other association of the same device is open.
func (s *SQLite) UpdateState(ctx context.Context, id int64, from, to model.State, actor string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE associations SET state = ?, updated_at_ns = ?, updated_by = ? WHERE id = ? AND state = ?`
	args := []any{string(to), at.UnixNano(), actor, id, string(from)}
	if to.Open() && !from.Open() {
		query += ` AND NOT EXISTS (
		SELECT 1 FROM associations o
		WHERE o.serial_number = associations.serial_number AND o.id <> associations.id AND o.state IN (?, ?))`
		args = append(args, string(model.StateAssociated), string(model.StateSuspended))
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update association %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update association %d: %w", id, err)
	}
	if n == 0 {
		return rejectedUpdate(ctx, tx, id, from)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO association_history (association_id, prior_state, new_state, actor, changed_at_ns) VALUES (?, ?, ?, ?, ?)`,
		id, string(from), string(to), actor, at.UnixNano()); err != nil {
		return fmt.Errorf("failed to record history of association %d: %w", id, err)
	}

	return tx.Commit()
}

// rejectedUpdate explains why a conditional state write matched no row.
func rejectedUpdate(ctx context.Context, tx *sql.Tx, id int64, from model.State) error {
	var current string
	err := tx.QueryRowContext(ctx, `SELECT state FROM associations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("association %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if model.State(current) != from {
		return fmt.Errorf("association %d is %s, expected %s: %w", id, current, from, core.ErrInvalidTransition)
	}
	return fmt.Errorf("association %d: device already has an open association: %w", id, core.ErrInvalidTransition)
}

// History returns the recorded state changes of an association, oldest first.
func (s *SQLite) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT association_id, prior_state, new_state, actor, changed_at_ns FROM association_history WHERE association_id = ? ORDER BY id`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e             HistoryEntry
			prior, next   string
			changedAtNano int64
		)
		if err := rows.Scan(&e.AssociationID, &prior, &next, &e.Actor, &changedAtNano); err != nil {
			return nil, err
		}
		e.PriorState = model.State(prior)
		e.NewState = model.State(next)
		e.ChangedAt = time.Unix(0, changedAtNano).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) FindAssociatedVin(ctx context.Context, serialNumber string) (*model.Vin, error) {
	var v model.Vin
	err := s.db.QueryRowContext(ctx,
		`SELECT value, dummy, model_name FROM vins WHERE serial_number = ?`, serialNumber,
	).Scan(&v.Value, &v.Dummy, &v.ModelName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PutVin binds a VIN to a device serial number, replacing any previous one.
func (s *SQLite) PutVin(ctx context.Context, serialNumber string, v *model.Vin) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO vins (serial_number, value, dummy, model_name) VALUES (?, ?, ?, ?)
	ON CONFLICT(serial_number) DO UPDATE SET
		value = excluded.value,
		dummy = excluded.dummy,
		model_name = excluded.model_name`,
		serialNumber, v.Value, v.Dummy, v.ModelName)
	return err
}

func (s *SQLite) CountOpenAssociations(ctx context.Context, serialNumber string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM associations WHERE serial_number = ? AND state IN (?, ?)`,
		serialNumber, string(model.StateAssociated), string(model.StateSuspended),
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssociation(row rowScanner) (*model.Association, error) {
	var (
		a                    model.Association
		state                string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&a.ID, &a.SerialNumber, &a.HarmanID, &a.FactoryID, &a.SoftwareVersion, &a.DeviceType,
		&a.UserID, &a.VehicleID, &a.Country, &state, &createdAt, &updatedAt, &a.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	a.State = model.State(state)
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &a, nil
}
