package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements RecordStore on a pgx connection pool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects a PostgresStore to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS food_trucks (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	current_location    JSONB,
	contact_info        JSONB,
	social_media        JSONB,
	menu                JSONB,
	cuisine_type        JSONB,
	price_range         TEXT NOT NULL DEFAULT '',
	schedule            JSONB,
	average_rating      DOUBLE PRECISION,
	review_count        INTEGER,
	source_urls         JSONB,
	data_quality_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	last_scraped_at     TIMESTAMPTZ,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_food_trucks_name ON food_trucks(name);
CREATE INDEX IF NOT EXISTS idx_food_trucks_verification ON food_trucks(verification_status);
CREATE INDEX IF NOT EXISTS idx_food_trucks_quality ON food_trucks(data_quality_score);
`

const truckColumns = `id, name, description, current_location, contact_info, social_media, menu,
	cuisine_type, price_range, schedule, average_rating, review_count, source_urls,
	data_quality_score, verification_status, last_scraped_at, updated_at`

// jsonFields are columns stored as JSONB and marshaled on write.
var jsonFields = map[string]bool{
	"current_location": true,
	"contact_info":     true,
	"social_media":     true,
	"menu":             true,
	"cuisine_type":     true,
	"schedule":         true,
	"source_urls":      true,
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FetchPage(ctx context.Context, limit, offset int) ([]model.FoodTruckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+truckColumns+` FROM food_trucks ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch page")
	}
	defer rows.Close()

	var records []model.FoodTruckRecord
	for rows.Next() {
		var r model.FoodTruckRecord
		if err := scanTruck(rows, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) FetchByID(ctx context.Context, id string) (*model.FoodTruckRecord, error) {
	if id == "" {
		return nil, NewValidationError("fetch: empty record id")
	}
	var r model.FoodTruckRecord
	err := scanTruck(s.pool.QueryRow(ctx,
		`SELECT `+truckColumns+` FROM food_trucks WHERE id = $1`, id,
	), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fetch %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, id string, fields map[string]any) (*model.FoodTruckRecord, error) {
	if err := validateUpdate(id, fields); err != nil {
		return nil, err
	}

	// Deterministic column order keeps the generated SQL stable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	setSQL := ""
	args := []any{id}
	for i, k := range keys {
		v := fields[k]
		if jsonFields[k] {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: marshal %s", k)
			}
			v = data
		}
		setSQL += fmt.Sprintf("%s = $%d, ", k, i+2)
		args = append(args, v)
	}

	query := fmt.Sprintf(
		`UPDATE food_trucks SET %supdated_at = now() WHERE id = $1 RETURNING %s`,
		setSQL, truckColumns,
	)

	var r model.FoodTruckRecord
	err := scanTruck(s.pool.QueryRow(ctx, query, args...), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "update", Err: eris.Wrapf(err, "record %s", id)}
	}
	return &r, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return NewValidationError("delete: empty record id")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM food_trucks WHERE id = $1`, id)
	if err != nil {
		return &StoreError{Op: "delete", Err: eris.Wrapf(err, "record %s", id)}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, r *model.FoodTruckRecord) error {
	loc, err := marshalNullable(r.CurrentLocation)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal location")
	}
	contact, err := marshalNullable(r.ContactInfo)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal contact")
	}
	social, err := marshalNullable(r.SocialMedia)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal social")
	}
	menu, err := marshalNullable(r.Menu)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal menu")
	}
	cuisine, err := marshalNullable(r.CuisineType)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cuisine")
	}
	schedule, err := marshalNullable(r.Schedule)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal schedule")
	}
	urls, err := marshalNullable(r.SourceURLs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal source urls")
	}

	if r.VerificationStatus == "" {
		r.VerificationStatus = model.VerificationPending
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO food_trucks (id, name, description, current_location, contact_info,
			social_media, menu, cuisine_type, price_range, schedule, average_rating,
			review_count, source_urls, data_quality_score, verification_status,
			last_scraped_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		r.ID, r.Name, r.Description, loc, contact, social, menu, cuisine,
		string(r.PriceRange), schedule, r.AverageRating, r.ReviewCount, urls,
		r.DataQualityScore, string(r.VerificationStatus), r.LastScrapedAt, r.UpdatedAt,
	)
	if err != nil {
		return &StoreError{Op: "insert", Err: eris.Wrapf(err, "record %s", r.ID)}
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM food_trucks`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count")
	}
	return n, nil
}

// scanTruck populates r from a row in truckColumns order.
func scanTruck(row pgx.Row, r *model.FoodTruckRecord) error {
	var (
		loc, contact, social, menu, cuisine, schedule, urls []byte
		priceRange, status                                  string
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Description, &loc, &contact, &social, &menu,
		&cuisine, &priceRange, &schedule, &r.AverageRating, &r.ReviewCount,
		&urls, &r.DataQualityScore, &status, &r.LastScrapedAt, &r.UpdatedAt,
	); err != nil {
		return err
	}
	r.PriceRange = model.PriceRange(priceRange)
	r.VerificationStatus = model.VerificationStatus(status)

	for _, f := range []struct {
		data []byte
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
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return err
		}
	}
	return nil
}

// marshalNullable marshals v unless it is nil, so absent structures stay
// NULL in the database instead of becoming the JSON literal "null".
func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *model.Location:
		if t == nil {
			return nil, nil
		}
	case *model.ContactInfo:
		if t == nil {
			return nil, nil
		}
	case *model.SocialMedia:
		if t == nil {
			return nil, nil
		}
	case []model.MenuCategory:
		if t == nil {
			return nil, nil
		}
	case []model.ScheduleEntry:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
