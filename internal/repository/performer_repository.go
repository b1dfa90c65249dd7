package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// PerformerRepo stores performers.
type PerformerRepo struct{ DB *sql.DB }

func NewPerformerRepo(db *sql.DB) *PerformerRepo { return &PerformerRepo{DB: db} }

// Create inserts p and populates its ID and CreatedAt.
func (r *PerformerRepo) Create(ctx context.Context, p *model.Performer) error {
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO performers (name, image_name, genre, created_at) VALUES (?, ?, ?, ?)",
		p.Name, nullString(p.ImageName), string(p.Genre), p.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PerformerRepo) Get(ctx context.Context, id uint64) (model.Performer, bool, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id, name, image_name, genre, created_at FROM performers WHERE id = ?", id)
	p, err := scanPerformer(row)
	ok, err := found(err)
	return p, ok, err
}

func (r *PerformerRepo) List(ctx context.Context) ([]model.Performer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, image_name, genre, created_at FROM performers ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Performer
	for rows.Next() {
		p, err := scanPerformer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerformer(s scanner) (model.Performer, error) {
	var p model.Performer
	var image sql.NullString
	var genre string
	if err := s.Scan(&p.ID, &p.Name, &image, &genre, &p.CreatedAt); err != nil {
		return model.Performer{}, err
	}
	p.ImageName = image.String
	p.Genre = model.Genre(genre)
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
