package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/drawin/internal/sketch"
)

// Sketch is one stored, classified stroke.
type Sketch struct {
	ID           string          `json:"sketch_id"`
	Category     sketch.Category `json:"category"`
	Rule         string          `json:"rule"`
	Manual       bool            `json:"manual"`
	ModelVersion string          `json:"model_version"`
	PointCount   int             `json:"point_count"`
	Width        float64         `json:"width"`
	Height       float64         `json:"height"`
	AspectRatio  float64         `json:"aspect_ratio"`
	Circularity  float64         `json:"circularity"`
	Points       sketch.Stroke   `json:"points,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CategoryCount is one row of the category histogram.
type CategoryCount struct {
	Category sketch.Category `json:"category"`
	Count    int             `json:"count"`
}

const sketchColumns = `sketch_id, category, rule, manual, model_version, point_count,
	width, height, aspect_ratio, circularity, points_json, created_at`

// RecordClassification stores a stroke with its classification and returns
// the new sketch ID.
func (db *DB) RecordClassification(stroke sketch.Stroke, result sketch.ClassificationResult) (string, error) {
	pointsJSON, err := json.Marshal(stroke)
	if err != nil {
		return "", fmt.Errorf("failed to encode points: %w", err)
	}

	id := uuid.NewString()
	f := result.Features
	_, err = db.Exec(`INSERT INTO sketches (`+sketchColumns+`)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		result.Category.String(),
		result.Rule,
		result.Model,
		result.PointCount,
		f.Width,
		f.Height,
		f.AspectRatio,
		f.Circularity,
		string(pointsJSON),
		db.Clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert sketch: %w", err)
	}
	return id, nil
}

// Sketch returns the stored sketch with the given ID, points included.
func (db *DB) Sketch(id string) (*Sketch, error) {
	row := db.QueryRow(`SELECT `+sketchColumns+` FROM sketches WHERE sketch_id = ?`, id)
	s, err := scanSketch(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Sketches returns up to limit sketches, newest first, without their points.
func (db *DB) Sketches(limit int) ([]Sketch, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := db.Query(`SELECT `+sketchColumns+` FROM sketches
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Sketch{}
	for rows.Next() {
		s, err := scanSketch(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SetCategory records a manual correction of a stored sketch.
func (db *DB) SetCategory(id string, cat sketch.Category) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %v", sketch.ErrUnknownCategory, cat)
	}
	res, err := db.Exec(`UPDATE sketches SET category = ?, manual = 1 WHERE sketch_id = ?`, cat.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update sketch: %w", err)
	}
	return expectOneRow(res)
}

// DeleteSketch removes a stored sketch.
func (db *DB) DeleteSketch(id string) error {
	res, err := db.Exec(`DELETE FROM sketches WHERE sketch_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sketch: %w", err)
	}
	return expectOneRow(res)
}

// CategoryCounts returns how many sketches carry each category, in
// vocabulary order. Categories never seen are omitted.
func (db *DB) CategoryCounts() ([]CategoryCount, error) {
	rows, err := db.Query(`SELECT category, COUNT(*) FROM sketches GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts [sketch.NumCategories]int
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		var cat sketch.Category
		if err := cat.UnmarshalText([]byte(label)); err != nil {
			return nil, fmt.Errorf("stored category %q: %w", label, err)
		}
		counts[cat] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := []CategoryCount{}
	for c, n := range counts {
		if n > 0 {
			out = append(out, CategoryCount{Category: sketch.Category(c), Count: n})
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSketch(row rowScanner, withPoints bool) (*Sketch, error) {
	var (
		s          Sketch
		label      string
		manual     int
		pointsJSON string
		createdAt  int64
	)
	err := row.Scan(&s.ID, &label, &s.Rule, &manual, &s.ModelVersion, &s.PointCount,
		&s.Width, &s.Height, &s.AspectRatio, &s.Circularity, &pointsJSON, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := s.Category.UnmarshalText([]byte(label)); err != nil {
		return nil, fmt.Errorf("stored category %q: %w", label, err)
	}
	s.Manual = manual != 0
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	if withPoints {
		if err := json.Unmarshal([]byte(pointsJSON), &s.Points); err != nil {
			return nil, fmt.Errorf("failed to decode points of %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
