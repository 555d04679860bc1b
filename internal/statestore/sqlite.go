package statestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

// openRetryMaxElapsed bounds how long NewSQLiteStore keeps retrying a
// database that cannot be opened yet (locked file, slow volume mount).
var openRetryMaxElapsed = 15 * time.Second

// applicationChunkSize keeps IN (...) lists well below SQLite's variable limit.
const applicationChunkSize = 500

// SQLiteStore implements StateStore using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ StateStore = (*SQLiteStore)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore opens (creating if needed) the database at dbPath. Opening is
// retried with exponential backoff; schema errors are permanent.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// _foreign_keys=1: application rows cascade with their equipment
	// _journal_mode=WAL: concurrent readers alongside the single writer
	// _busy_timeout=3000: wait up to 3 seconds for locks
	connStr := dbPath + "?_foreign_keys=1&mode=rwc&_journal_mode=WAL&_busy_timeout=3000"

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = openRetryMaxElapsed

	var db *sql.DB
	err := backoff.RetryNotify(func() error {
		conn, err := openDatabase(connStr)
		if err != nil {
			return err
		}
		db = conn
		return nil
	}, bo, func(err error, wait time.Duration) {
		logger.Warn("sqlite database not ready, retrying",
			"path", dbPath,
			"error", err,
			"retry_in", wait)
	})
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.NewPermanentf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func openDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, errors.NewTransientf("failed to open sqlite database: %w", err)
	}

	// WAL mode supports one writer and multiple concurrent readers
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	var fkEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		db.Close()
		return nil, errors.NewTransientf("failed to check foreign keys status: %w", err)
	}
	if fkEnabled != 1 {
		db.Close()
		return nil, errors.NewTransientf("foreign keys are not enabled (got %d, expected 1)", fkEnabled)
	}
	return db, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewTransientf("sqlite ping failed: %w", err)
	}
	return nil
}

// initSchema creates the database schema with all tables and indexes.
// Calendar dates are stored as YYYY-MM-DD text, timestamps as unix seconds.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS equipment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		equipment_type TEXT NOT NULL,
		location TEXT NOT NULL,
		ip_address TEXT NOT NULL DEFAULT '',
		os_name TEXT NOT NULL DEFAULT '',
		os_version TEXT NOT NULL DEFAULT '',
		acquisition_date TEXT,
		warranty_end_date TEXT,
		status TEXT NOT NULL DEFAULT 'Active',
		created_at INTEGER NOT NULL DEFAULT (cast(strftime('%s', 'now') as integer)),
		updated_at INTEGER NOT NULL DEFAULT (cast(strftime('%s', 'now') as integer))
	);

	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		equipment_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (equipment_id) REFERENCES equipment(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		product_type TEXT NOT NULL,
		eol_date TEXT,
		support_end_date TEXT,
		status TEXT NOT NULL,
		equipment_names TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		confidence TEXT NOT NULL,
		recommendation TEXT NOT NULL DEFAULT '',
		last_updated INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(product_name, version, product_type)
	);

	CREATE INDEX IF NOT EXISTS idx_equipment_location ON equipment(location);
	CREATE INDEX IF NOT EXISTS idx_equipment_type ON equipment(equipment_type);
	CREATE INDEX IF NOT EXISTS idx_equipment_status ON equipment(status);
	CREATE INDEX IF NOT EXISTS idx_applications_equipment ON applications(equipment_id);
	CREATE INDEX IF NOT EXISTS idx_classifications_status ON classifications(status);
	CREATE INDEX IF NOT EXISTS idx_classifications_type ON classifications(product_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateEquipment inserts the equipment and its applications in one transaction
func (s *SQLiteStore) CreateEquipment(ctx context.Context, equipment *types.Equipment) (*types.Equipment, error) {
	if err := validateEquipment(equipment); err != nil {
		return nil, err
	}
	status, err := canonicalEquipmentStatus(equipment.Status)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewTransientf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nowUnix := time.Now().Unix()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO equipment (name, equipment_type, location, ip_address, os_name, os_version,
			acquisition_date, warranty_end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		strings.TrimSpace(equipment.Name), strings.TrimSpace(equipment.EquipmentType), strings.TrimSpace(equipment.Location),
		equipment.IPAddress, equipment.OSName, equipment.OSVersion,
		dateArg(equipment.AcquisitionDate), dateArg(equipment.WarrantyEndDate),
		status, nowUnix, nowUnix,
	)
	if err != nil {
		return nil, errors.NewTransientf("failed to insert equipment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.NewTransientf("failed to get equipment ID: %w", err)
	}

	if err := insertApplications(ctx, tx, id, equipment.Applications); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewTransientf("failed to commit transaction: %w", err)
	}

	return s.GetEquipment(ctx, id)
}

// GetEquipment loads one piece of equipment with its applications
func (s *SQLiteStore) GetEquipment(ctx context.Context, id int64) (*types.Equipment, error) {
	row := s.db.QueryRowContext(ctx, equipmentSelect+" WHERE id = ?", id)
	equipment, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrEquipmentNotFound, id)
	}
	if err != nil {
		return nil, errors.NewTransientf("failed to query equipment: %w", err)
	}

	list := []types.Equipment{*equipment}
	if err := attachApplications(ctx, s.db, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// UpdateEquipment applies the non-nil fields of update. Supplying Applications
// replaces the whole application list.
func (s *SQLiteStore) UpdateEquipment(ctx context.Context, id int64, update EquipmentUpdate) (*types.Equipment, error) {
	sets := []string{}
	args := []any{}

	setText := func(column string, value *string, required bool) error {
		if value == nil {
			return nil
		}
		v := strings.TrimSpace(*value)
		if required && v == "" {
			return errors.NewPermanentf("%w: %s must not be empty", errors.ErrInvalidInput, column)
		}
		sets = append(sets, column+" = ?")
		args = append(args, v)
		return nil
	}

	for _, f := range []struct {
		column   string
		value    *string
		required bool
	}{
		{"name", update.Name, true},
		{"equipment_type", update.EquipmentType, true},
		{"location", update.Location, true},
		{"ip_address", update.IPAddress, false},
		{"os_name", update.OSName, false},
		{"os_version", update.OSVersion, false},
	} {
		if err := setText(f.column, f.value, f.required); err != nil {
			return nil, err
		}
	}

	if update.Name != nil {
		if err := validateEquipmentName(*update.Name); err != nil {
			return nil, err
		}
	}
	if update.Status != nil {
		status, err := canonicalEquipmentStatus(*update.Status)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "status = ?")
		args = append(args, status)
	}
	if update.AcquisitionDate != nil {
		sets = append(sets, "acquisition_date = ?")
		args = append(args, dateArg(update.AcquisitionDate))
	}
	if update.WarrantyEndDate != nil {
		sets = append(sets, "warranty_end_date = ?")
		args = append(args, dateArg(update.WarrantyEndDate))
	}
	if update.Applications != nil {
		if err := validateApplications(*update.Applications); err != nil {
			return nil, err
		}
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewTransientf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, "UPDATE equipment SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.NewTransientf("failed to update equipment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewTransientf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrEquipmentNotFound, id)
	}

	if update.Applications != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE equipment_id = ?`, id); err != nil {
			return nil, errors.NewTransientf("failed to delete applications: %w", err)
		}
		if err := insertApplications(ctx, tx, id, *update.Applications); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewTransientf("failed to commit transaction: %w", err)
	}

	return s.GetEquipment(ctx, id)
}

// DeleteEquipment removes the equipment; its applications go with it
func (s *SQLiteStore) DeleteEquipment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return errors.NewTransientf("failed to delete equipment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewTransientf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrEquipmentNotFound, id)
	}
	return nil
}

// ListEquipment returns matching equipment, most recently created first,
// together with the total number of matches ignoring Limit and Offset.
func (s *SQLiteStore) ListEquipment(ctx context.Context, filter EquipmentFilter) ([]types.Equipment, int, error) {
	where, args := equipmentWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM equipment"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewTransientf("failed to count equipment: %w", err)
	}

	query := equipmentSelect + where + " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	list, err := s.queryEquipment(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListInventory returns every piece of equipment in insertion order
func (s *SQLiteStore) ListInventory(ctx context.Context) ([]types.Equipment, error) {
	return s.queryEquipment(ctx, equipmentSelect+" ORDER BY id ASC")
}

// ListLocations returns the distinct non-empty locations in alphabetical order
func (s *SQLiteStore) ListLocations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT location FROM equipment
		WHERE location <> ''
		ORDER BY location
	`)
	if err != nil {
		return nil, errors.NewTransientf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := []string{}
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	return locations, nil
}

// EquipmentStats aggregates the inventory. A location of "" or "all" means no
// filter; the by-location breakdown always covers every location.
func (s *SQLiteStore) EquipmentStats(ctx context.Context, location string) (*EquipmentStats, error) {
	where := ""
	args := []any{}
	if !isWildcard(location, locationWildcards) {
		where = " WHERE location = ?"
		args = append(args, strings.TrimSpace(location))
	}

	stats := &EquipmentStats{AppliedFilter: location}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'Active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'Obsolete' THEN 1 ELSE 0 END), 0)
		FROM equipment`+where, args...).Scan(&stats.Total, &stats.Active, &stats.Obsolete)
	if err != nil {
		return nil, errors.NewTransientf("failed to count equipment: %w", err)
	}

	if stats.ByType, err = s.groupCounts(ctx, "equipment_type", where, args); err != nil {
		return nil, err
	}
	if stats.ByStatus, err = s.groupCounts(ctx, "status", where, args); err != nil {
		return nil, err
	}
	if stats.ByLocation, err = s.groupCounts(ctx, "location", "", nil); err != nil {
		return nil, err
	}

	return stats, nil
}

// groupCounts runs a GROUP BY over one equipment column. column is always a
// literal from this file, never user input.
func (s *SQLiteStore) groupCounts(ctx context.Context, column, where string, args []any) ([]GroupCount, error) {
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM equipment%s GROUP BY %s ORDER BY COUNT(*) DESC, %s", column, where, column, column)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewTransientf("failed to group equipment by %s: %w", column, err)
	}
	defer rows.Close()

	counts := []GroupCount{}
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		counts = append(counts, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	return counts, nil
}

// ReplaceClassifications deletes every stored classification and inserts the
// given set in a single transaction. created_at survives for products that
// were already classified by an earlier run.
func (s *SQLiteStore) ReplaceClassifications(ctx context.Context, classifications []types.Classification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewTransientf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	firstSeen, err := existingCreatedAt(ctx, tx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM classifications`); err != nil {
		return errors.NewTransientf("failed to delete classifications: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classifications (product_name, version, product_type, eol_date, support_end_date,
			status, equipment_names, source, confidence, recommendation, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewTransientf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	nowUnix := time.Now().Unix()
	for i := range classifications {
		c := &classifications[i]
		for _, name := range c.EquipmentNames {
			if err := validateEquipmentName(name); err != nil {
				return err
			}
		}

		lastUpdated := nowUnix
		if !c.LastUpdated.IsZero() {
			lastUpdated = c.LastUpdated.Unix()
		}
		createdAt := lastUpdated
		if !c.CreatedAt.IsZero() {
			createdAt = c.CreatedAt.Unix()
		}
		if prev, ok := firstSeen[c.Key()]; ok && prev < createdAt {
			createdAt = prev
		}

		_, err := stmt.ExecContext(ctx,
			c.ProductName, c.Version, string(c.ProductType),
			dateArg(c.EOLDate), dateArg(c.SupportEndDate),
			string(c.Status), types.JoinEquipmentNames(c.EquipmentNames),
			string(c.Source), string(c.Confidence), c.Recommendation,
			lastUpdated, createdAt,
		)
		if err != nil {
			return errors.NewTransientf("failed to insert classification %s %s: %w", c.ProductName, c.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewTransientf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("classifications replaced", "count", len(classifications))
	return nil
}

func existingCreatedAt(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT product_name, version, product_type, created_at FROM classifications`)
	if err != nil {
		return nil, errors.NewTransientf("failed to query existing classifications: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]int64)
	for rows.Next() {
		var name, version, productType string
		var createdAt int64
		if err := rows.Scan(&name, &version, &productType, &createdAt); err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		seen[types.ObservationKey(name, version, types.ProductType(productType))] = createdAt
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	return seen, nil
}

// ListClassifications returns stored classifications ordered by severity,
// then by EOL date with undated products last.
func (s *SQLiteStore) ListClassifications(ctx context.Context, filter ClassificationFilter) ([]types.Classification, error) {
	query := classificationSelect + " WHERE 1=1"
	args := []any{}

	if filter.ProductType != "" {
		query += " AND product_type = ?"
		args = append(args, string(filter.ProductType))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += `
		ORDER BY CASE status
			WHEN 'Critical' THEN 0
			WHEN 'High' THEN 1
			WHEN 'Medium' THEN 2
			WHEN 'Low' THEN 3
			ELSE 4
		END, eol_date IS NULL, eol_date, product_name, version`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewTransientf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	classifications := []types.Classification{}
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		classifications = append(classifications, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	return classifications, nil
}

// GetClassification loads one classification by id
func (s *SQLiteStore) GetClassification(ctx context.Context, id int64) (*types.Classification, error) {
	c, err := scanClassification(s.db.QueryRowContext(ctx, classificationSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrClassificationNotFound, id)
	}
	if err != nil {
		return nil, errors.NewTransientf("failed to query classification: %w", err)
	}
	return c, nil
}

// ClassificationCounts groups stored classifications by status and product type
func (s *SQLiteStore) ClassificationCounts(ctx context.Context) ([]ClassificationCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, product_type, COUNT(*)
		FROM classifications
		GROUP BY status, product_type
		ORDER BY status, product_type
	`)
	if err != nil {
		return nil, errors.NewTransientf("failed to count classifications: %w", err)
	}
	defer rows.Close()

	var counts []ClassificationCount
	for rows.Next() {
		var status, productType string
		var count int
		if err := rows.Scan(&status, &productType, &count); err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		counts = append(counts, ClassificationCount{
			Status:      types.Status(status),
			ProductType: types.ProductType(productType),
			Count:       count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	return counts, nil
}

const equipmentSelect = `
	SELECT id, name, equipment_type, location, ip_address, os_name, os_version,
		acquisition_date, warranty_end_date, status, created_at, updated_at
	FROM equipment`

const classificationSelect = `
	SELECT id, product_name, version, product_type, eol_date, support_end_date, status,
		equipment_names, source, confidence, recommendation, last_updated, created_at
	FROM classifications`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*types.Equipment, error) {
	var e types.Equipment
	var acquisition, warranty sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(
		&e.ID, &e.Name, &e.EquipmentType, &e.Location, &e.IPAddress, &e.OSName, &e.OSVersion,
		&acquisition, &warranty, &e.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.AcquisitionDate = scanDate(acquisition)
	e.WarrantyEndDate = scanDate(warranty)
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	e.Applications = []types.InstalledApplication{}
	return &e, nil
}

func scanClassification(row rowScanner) (*types.Classification, error) {
	var c types.Classification
	var eol, support sql.NullString
	var productType, status, names, source, confidence string
	var lastUpdated, createdAt int64
	err := row.Scan(
		&c.ID, &c.ProductName, &c.Version, &productType, &eol, &support, &status,
		&names, &source, &confidence, &c.Recommendation, &lastUpdated, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	c.ProductType = types.ProductType(productType)
	c.EOLDate = scanDate(eol)
	c.SupportEndDate = scanDate(support)
	c.Status = types.Status(status)
	c.EquipmentNames = types.SplitEquipmentNames(names)
	c.Source = types.Source(source)
	c.Confidence = types.Confidence(confidence)
	c.LastUpdated = time.Unix(lastUpdated, 0).UTC()
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

func (s *SQLiteStore) queryEquipment(ctx context.Context, query string, args ...any) ([]types.Equipment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewTransientf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	list := []types.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, errors.NewTransientf("failed to scan row: %w", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTransientf("error iterating rows: %w", err)
	}
	// Release the connection before the application queries
	rows.Close()

	if err := attachApplications(ctx, s.db, list); err != nil {
		return nil, err
	}
	return list, nil
}

// attachApplications loads the applications of every listed equipment in
// insertion order.
func attachApplications(ctx context.Context, q queryer, list []types.Equipment) error {
	index := make(map[int64]int, len(list))
	ids := make([]any, 0, len(list))
	for i := range list {
		index[list[i].ID] = i
		ids = append(ids, list[i].ID)
	}

	for start := 0; start < len(ids); start += applicationChunkSize {
		end := min(start+applicationChunkSize, len(ids))
		chunk := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		rows, err := q.QueryContext(ctx, `
			SELECT id, equipment_id, name, version FROM applications
			WHERE equipment_id IN (`+placeholders+`)
			ORDER BY id
		`, chunk...)
		if err != nil {
			return errors.NewTransientf("failed to query applications: %w", err)
		}

		for rows.Next() {
			var app types.InstalledApplication
			var equipmentID int64
			if err := rows.Scan(&app.ID, &equipmentID, &app.Name, &app.Version); err != nil {
				rows.Close()
				return errors.NewTransientf("failed to scan row: %w", err)
			}
			if i, ok := index[equipmentID]; ok {
				list[i].Applications = append(list[i].Applications, app)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return errors.NewTransientf("error iterating rows: %w", err)
		}
	}
	return nil
}

func insertApplications(ctx context.Context, tx *sql.Tx, equipmentID int64, apps []types.InstalledApplication) error {
	if err := validateApplications(apps); err != nil {
		return err
	}
	for _, app := range apps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO applications (equipment_id, name, version) VALUES (?, ?, ?)
		`, equipmentID, strings.TrimSpace(app.Name), strings.TrimSpace(app.Version))
		if err != nil {
			return errors.NewTransientf("failed to insert application: %w", err)
		}
	}
	return nil
}

func validateEquipment(e *types.Equipment) error {
	if e == nil {
		return errors.NewPermanentf("%w: equipment is required", errors.ErrInvalidInput)
	}
	var missing []string
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.EquipmentType) == "" {
		missing = append(missing, "equipment_type")
	}
	if strings.TrimSpace(e.Location) == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return errors.NewPermanentf("%w: missing required fields: %s", errors.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if err := validateEquipmentName(e.Name); err != nil {
		return err
	}
	return validateApplications(e.Applications)
}

func validateEquipmentName(name string) error {
	if strings.Contains(name, types.EquipmentNameSeparator) {
		return errors.NewPermanentf("%w: equipment name %q must not contain %q",
			errors.ErrInvalidInput, name, types.EquipmentNameSeparator)
	}
	return nil
}

func validateApplications(apps []types.InstalledApplication) error {
	for i, app := range apps {
		if strings.TrimSpace(app.Name) == "" {
			return errors.NewPermanentf("%w: application %d has no name", errors.ErrInvalidInput, i)
		}
	}
	return nil
}

// canonicalEquipmentStatus resolves aliases and defaults empty input to Active.
func canonicalEquipmentStatus(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return types.EquipmentStatusActive, nil
	}
	status, ok := types.NormalizeEquipmentStatus(s)
	switch {
	case !ok:
		return "", errors.NewPermanentf("%w: %q is not an equipment status", errors.ErrInvalidInput, s)
	case status == types.EquipmentStatusActive, status == types.EquipmentStatusObsolete, status == types.EquipmentStatusInStock:
		return status, nil
	default:
		return "", errors.NewPermanentf("%w: unknown equipment status %q", errors.ErrInvalidInput, s)
	}
}

var (
	typeWildcards     = []string{"all", "tous", "tous les types"}
	locationWildcards = []string{"all", "toutes", "toutes les localisations"}
)

func isWildcard(s string, wildcards []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	for _, w := range wildcards {
		if s == w {
			return true
		}
	}
	return false
}

func equipmentWhere(filter EquipmentFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		clauses = append(clauses, "(name LIKE ? OR location LIKE ? OR ip_address LIKE ? OR os_name LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if !isWildcard(filter.Type, typeWildcards) {
		clauses = append(clauses, "equipment_type = ?")
		args = append(args, strings.TrimSpace(filter.Type))
	}
	if status, ok := types.NormalizeEquipmentStatus(filter.Status); ok {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	if !isWildcard(filter.Location, locationWildcards) {
		clauses = append(clauses, "location = ?")
		args = append(args, strings.TrimSpace(filter.Location))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(types.DateLayout)
}

func scanDate(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := types.ParseDate(ns.String)
	if err != nil {
		return nil
	}
	return &t
}
