package cleanup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// SQLiteStore implements RecordStore on modernc.org/sqlite for local runs
// and development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS food_trucks (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	current_location    TEXT,
	contact_info        TEXT,
	social_media        TEXT,
	menu                TEXT,
	cuisine_type        TEXT,
	price_range         TEXT NOT NULL DEFAULT '',
	schedule            TEXT,
	average_rating      REAL,
	review_count        INTEGER,
	source_urls         TEXT,
	data_quality_score  REAL NOT NULL DEFAULT 0,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	last_scraped_at     DATETIME,
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_food_trucks_name ON food_trucks(name);
CREATE INDEX IF NOT EXISTS idx_food_trucks_verification ON food_trucks(verification_status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchPage(ctx context.Context, limit, offset int) ([]model.FoodTruckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+truckColumns+` FROM food_trucks ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch page")
	}
	defer rows.Close()

	var records []model.FoodTruckRecord
	for rows.Next() {
		var r model.FoodTruckRecord
		if err := scanTruckSQL(rows, &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) FetchByID(ctx context.Context, id string) (*model.FoodTruckRecord, error) {
	if id == "" {
		return nil, NewValidationError("fetch: empty record id")
	}
	var r model.FoodTruckRecord
	err := scanTruckSQL(s.db.QueryRowContext(ctx,
		`SELECT `+truckColumns+` FROM food_trucks WHERE id = ?`, id,
	), &r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpdateByID(ctx context.Context, id string, fields map[string]any) (*model.FoodTruckRecord, error) {
	if err := validateUpdate(id, fields); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	setSQL := ""
	var args []any
	for _, k := range keys {
		v := fields[k]
		if jsonFields[k] {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: marshal %s", k)
			}
			v = string(data)
		}
		setSQL += fmt.Sprintf("%s = ?, ", k)
		args = append(args, v)
	}
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE food_trucks SET %supdated_at = ? WHERE id = ?`, setSQL),
		args...,
	)
	if err != nil {
		return nil, &StoreError{Op: "update", Err: eris.Wrapf(err, "record %s", id)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.FetchByID(ctx, id)
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return NewValidationError("delete: empty record id")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_trucks WHERE id = ?`, id)
	if err != nil {
		return &StoreError{Op: "delete", Err: eris.Wrapf(err, "record %s", id)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, r *model.FoodTruckRecord) error {
	if r.VerificationStatus == "" {
		r.VerificationStatus = model.VerificationPending
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}

	jsonArgs := make([]any, 0, 7)
	for _, v := range []any{
		r.CurrentLocation, r.ContactInfo, r.SocialMedia, r.Menu,
		r.CuisineType, r.Schedule, r.SourceURLs,
	} {
		data, err := marshalNullable(v)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal record %s", r.ID)
		}
		if data == nil {
			jsonArgs = append(jsonArgs, nil)
		} else {
			jsonArgs = append(jsonArgs, string(data))
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO food_trucks (id, name, description, current_location, contact_info,
			social_media, menu, cuisine_type, price_range, schedule, average_rating,
			review_count, source_urls, data_quality_score, verification_status,
			last_scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, jsonArgs[0], jsonArgs[1], jsonArgs[2],
		jsonArgs[3], jsonArgs[4], string(r.PriceRange), jsonArgs[5],
		r.AverageRating, r.ReviewCount, jsonArgs[6], r.DataQualityScore,
		string(r.VerificationStatus), r.LastScrapedAt, r.UpdatedAt,
	)
	if err != nil {
		return &StoreError{Op: "insert", Err: eris.Wrapf(err, "record %s", r.ID)}
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM food_trucks`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count")
	}
	return n, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTruckSQL(row scanner, r *model.FoodTruckRecord) error {
	var (
		loc, contact, social, menu, cuisine, schedule, urls sql.NullString
		rating                                              sql.NullFloat64
		reviews                                             sql.NullInt64
		lastScraped                                         sql.NullTime
		priceRange, status                                  string
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Description, &loc, &contact, &social, &menu,
		&cuisine, &priceRange, &schedule, &rating, &reviews, &urls,
		&r.DataQualityScore, &status, &lastScraped, &r.UpdatedAt,
	); err != nil {
		return err
	}
	r.PriceRange = model.PriceRange(priceRange)
	r.VerificationStatus = model.VerificationStatus(status)
	if rating.Valid {
		r.AverageRating = &rating.Float64
	}
	if reviews.Valid {
		n := int(reviews.Int64)
		r.ReviewCount = &n
	}
	if lastScraped.Valid {
		r.LastScrapedAt = &lastScraped.Time
	}

	for _, f := range []struct {
		data sql.NullString
		dst  any
	}{
		{loc, &r.CurrentLocation},
		{contact, &r.ContactInfo},
		{social, &r.SocialMedia},
		{menu, &r.Menu},
		{cuisine, &r.CuisineType},
		{schedule, &r.Schedule},
		{urls, &r.SourceURLs},
	} {
		if !f.data.Valid || f.data.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.data.String), f.dst); err != nil {
			return err
		}
	}
	return nil
}
