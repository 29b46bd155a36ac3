package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/profile"
)

// ProfileStore handles reader profile database operations
type ProfileStore struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewProfileStore creates a new profile store
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Load retrieves a profile and its reading history
func (s *ProfileStore) Load(ctx context.Context, readerID string) (*models.UserProfile, error) {
	query, args, err := s.selectProfile(readerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile query: %w", err)
	}

	p := &models.UserProfile{}
	var interests, languages []string
	var lat, lng sql.NullFloat64
	var region sql.NullString

	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.Name, pq.Array(&interests), pq.Array(&languages), &lat, &lng, &region,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p.Interests = make([]models.Category, 0, len(interests))
	for _, c := range interests {
		p.Interests = append(p.Interests, models.Category(c))
	}
	p.PreferredLanguages = append([]string{}, languages...)
	if lat.Valid && lng.Valid {
		p.Location = &models.Location{Lat: lat.Float64, Lng: lng.Float64, Region: region.String}
	}

	history, err := s.loadHistory(ctx, readerID)
	if err != nil {
		return nil, err
	}
	p.ReadingHistory = history

	return p, nil
}

func (s *ProfileStore) loadHistory(ctx context.Context, readerID string) ([]models.ReadingEntry, error) {
	query, args, err := s.selectHistory(readerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading history: %w", err)
	}
	defer rows.Close()

	history := []models.ReadingEntry{}
	for rows.Next() {
		var e models.ReadingEntry
		var category string
		if err := rows.Scan(&e.ArticleID, &e.Title, &category, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan reading history: %w", err)
		}
		e.Category = models.Category(category)
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reading history: %w", err)
	}
	return history, nil
}

// Save upserts a profile and replaces its reading history
func (s *ProfileStore) Save(ctx context.Context, readerID string, p *models.UserProfile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []sq.Sqlizer{
		s.upsertProfile(readerID, p),
		s.deleteHistory(readerID),
	}
	if len(p.ReadingHistory) > 0 {
		statements = append(statements, s.insertHistory(readerID, p.ReadingHistory))
	}

	for _, stmt := range statements {
		query, args, err := stmt.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build statement: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) selectProfile(readerID string) sq.SelectBuilder {
	return s.sb.
		Select("name", "interests", "preferred_languages", "location_lat", "location_lng", "location_region").
		From("reader_profiles").
		Where(sq.Eq{"reader_id": readerID})
}

func (s *ProfileStore) selectHistory(readerID string) sq.SelectBuilder {
	return s.sb.
		Select("article_id", "title", "category", "read_at").
		From("reading_history").
		Where(sq.Eq{"reader_id": readerID}).
		OrderBy("position ASC")
}

func (s *ProfileStore) upsertProfile(readerID string, p *models.UserProfile) sq.InsertBuilder {
	interests := make([]string, 0, len(p.Interests))
	for _, c := range p.Interests {
		interests = append(interests, string(c))
	}

	var lat, lng sql.NullFloat64
	var region sql.NullString
	if p.Location != nil {
		lat = sql.NullFloat64{Float64: p.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: p.Location.Lng, Valid: true}
		region = nullString(p.Location.Region)
	}

	return s.sb.
		Insert("reader_profiles").
		Columns("reader_id", "name", "interests", "preferred_languages", "location_lat", "location_lng", "location_region").
		Values(readerID, p.Name, pq.Array(interests), pq.Array(p.PreferredLanguages), lat, lng, region).
		Suffix(`ON CONFLICT (reader_id) DO UPDATE SET
			name = EXCLUDED.name,
			interests = EXCLUDED.interests,
			preferred_languages = EXCLUDED.preferred_languages,
			location_lat = EXCLUDED.location_lat,
			location_lng = EXCLUDED.location_lng,
			location_region = EXCLUDED.location_region,
			updated_at = NOW()`)
}

func (s *ProfileStore) deleteHistory(readerID string) sq.DeleteBuilder {
	return s.sb.Delete("reading_history").Where(sq.Eq{"reader_id": readerID})
}

func (s *ProfileStore) insertHistory(readerID string, history []models.ReadingEntry) sq.InsertBuilder {
	insert := s.sb.
		Insert("reading_history").
		Columns("reader_id", "position", "article_id", "title", "category", "read_at")
	for i, e := range history {
		insert = insert.Values(readerID, i, e.ArticleID, e.Title, string(e.Category), e.Timestamp)
	}
	return insert
}

// Helper function for nullable strings
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ profile.Store = (*ProfileStore)(nil)
