package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

// ConcertRepo stores concerts together with their dates, tariff and
// performer links. A concert's scheduled dates are its seat_pools rows.
type ConcertRepo struct{ DB *sql.DB }

func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{DB: db} }

var _ reservation.Catalog = (*ConcertRepo)(nil)

// Create inserts the concert and everything hanging off it in one
// transaction, populating c.ID and c.CreatedAt.
func (r *ConcertRepo) Create(ctx context.Context, c *model.Concert) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, "INSERT INTO concerts (title, created_at) VALUES (?, ?)", c.Title, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert concert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	for _, d := range c.Dates {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO seat_pools (concert_id, concert_date, version) VALUES (?, ?, 0)",
			c.ID, d.UTC().Truncate(time.Second)); err != nil {
			if isDuplicate(err) {
				continue
			}
			return fmt.Errorf("insert seat pool: %w", err)
		}
	}
	for band, cents := range c.Tariff {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO concert_tariffs (concert_id, price_band, price_cents) VALUES (?, ?, ?)",
			c.ID, string(band), cents); err != nil {
			return fmt.Errorf("insert tariff: %w", err)
		}
	}
	seen := map[uint64]bool{}
	for _, pid := range c.PerformerIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO concert_performers (concert_id, performer_id) VALUES (?, ?)",
			c.ID, pid); err != nil {
			if mysqlErrorIs(err, mysqlNoReferencedRow) {
				return fmt.Errorf("%w: %d", ErrUnknownPerformer, pid)
			}
			return fmt.Errorf("link performer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get loads one concert. found is false when no such id exists.
func (r *ConcertRepo) Get(ctx context.Context, id uint64) (model.Concert, bool, error) {
	var c model.Concert
	err := r.DB.QueryRowContext(ctx, "SELECT id, title, created_at FROM concerts WHERE id = ?", id).
		Scan(&c.ID, &c.Title, &c.CreatedAt)
	ok, err := found(err)
	if !ok || err != nil {
		return model.Concert{}, false, err
	}
	byID := map[uint64]*model.Concert{c.ID: &c}
	if err := r.attach(ctx, byID, "WHERE concert_id = ?", id); err != nil {
		return model.Concert{}, false, err
	}
	return c, true, nil
}

// List returns all concerts ordered by id.
func (r *ConcertRepo) List(ctx context.Context) ([]model.Concert, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, title, created_at FROM concerts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Concert
	byID := map[uint64]*model.Concert{}
	for rows.Next() {
		c := &model.Concert{}
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, byID, ""); err != nil {
		return nil, err
	}
	out := make([]model.Concert, len(list))
	for i, c := range list {
		out[i] = *c
	}
	return out, nil
}

// Schedule implements reservation.Catalog.
func (r *ConcertRepo) Schedule(ctx context.Context, concertID uint64) (model.ConcertSchedule, bool, error) {
	c, ok, err := r.Get(ctx, concertID)
	if !ok || err != nil {
		return model.ConcertSchedule{}, ok, err
	}
	return model.ConcertSchedule{ConcertID: c.ID, Dates: c.Dates, Tariff: c.Tariff}, true, nil
}

// attach fills dates, tariff and performers for the concerts in byID. where
// narrows the three child queries and must filter on concert_id.
func (r *ConcertRepo) attach(ctx context.Context, byID map[uint64]*model.Concert, where string, args ...any) error {
	for _, c := range byID {
		c.Tariff = map[model.PriceBand]uint32{}
	}

	err := r.each(ctx, "SELECT concert_id, concert_date FROM seat_pools "+where+" ORDER BY concert_date", args,
		func(rows *sql.Rows) error {
			var id uint64
			var d time.Time
			if err := rows.Scan(&id, &d); err != nil {
				return err
			}
			if c := byID[id]; c != nil {
				c.Dates = append(c.Dates, d.UTC())
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = r.each(ctx, "SELECT concert_id, price_band, price_cents FROM concert_tariffs "+where, args,
		func(rows *sql.Rows) error {
			var id uint64
			var band string
			var cents uint32
			if err := rows.Scan(&id, &band, &cents); err != nil {
				return err
			}
			if c := byID[id]; c != nil {
				c.Tariff[model.PriceBand(band)] = cents
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = r.each(ctx, "SELECT concert_id, performer_id FROM concert_performers "+where, args,
		func(rows *sql.Rows) error {
			var id, pid uint64
			if err := rows.Scan(&id, &pid); err != nil {
				return err
			}
			if c := byID[id]; c != nil {
				c.PerformerIDs = append(c.PerformerIDs, pid)
			}
			return nil
		})
	if err != nil {
		return err
	}
	for _, c := range byID {
		sort.Slice(c.PerformerIDs, func(i, j int) bool { return c.PerformerIDs[i] < c.PerformerIDs[j] })
	}
	return nil
}

func (r *ConcertRepo) each(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
