package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/models"
)

const (
	DefaultSearchRadiusKm = 10.0
	MaxSearchResults      = 50
)

const parkColumns = `id, name, description, address, borough, zipcode, latitude, longitude,
	amenities, rules, hours_open, hours_close, website, phone, rating, review_count,
	created_at, updated_at`

// Relevance ranks for text search, best first.
const (
	rankName = iota + 1
	rankDescription
	rankAddress
	rankBorough
)

type ParkService struct {
	db DB
}

func NewParkService(db DB) *ParkService {
	return &ParkService{db: db}
}

func (s *ParkService) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	park, err := scanPark(s.db.QueryRow(ctx,
		"SELECT "+parkColumns+" FROM dog_parks WHERE id = $1",
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting park: %w", err)
	}
	return park, nil
}

// FindNearby returns parks within radiusKm of the given point, closest
// first. An invalid point yields an empty list rather than an error.
func (s *ParkService) FindNearby(ctx context.Context, latitude, longitude, radiusKm float64) ([]models.ParkWithDistance, error) {
	center := geo.Point{Latitude: latitude, Longitude: longitude}
	if !center.Valid() {
		return []models.ParkWithDistance{}, nil
	}
	if radiusKm < 0 {
		radiusKm = 0
	}

	where, args := boundsPredicate(geo.BoundingBox(center, radiusKm), 1)
	parks, err := s.queryParks(ctx, "SELECT "+parkColumns+" FROM dog_parks WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("finding nearby parks: %w", err)
	}

	byID := make(map[int64]models.Park, len(parks))
	candidates := make([]geo.Candidate, 0, len(parks))
	for _, p := range parks {
		byID[p.ID] = p
		candidates = append(candidates, geo.Candidate{
			ID:    p.ID,
			Point: geo.Point{Latitude: p.Latitude, Longitude: p.Longitude},
		})
	}

	hits := geo.FilterNearby(center, radiusKm, candidates)
	results := make([]models.ParkWithDistance, 0, len(hits))
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		distance := h.DistanceKm
		results = append(results, models.ParkWithDistance{Park: byID[h.ID], DistanceKm: &distance})
		ids = append(ids, h.ID)
	}

	if err := s.annotateActivity(ctx, results, ids); err != nil {
		return nil, err
	}
	return results, nil
}

// FindWithinBounds returns the parks inside bounds ordered by name. Bounds
// whose southwest longitude exceeds the northeast one wrap the antimeridian.
func (s *ParkService) FindWithinBounds(ctx context.Context, bounds geo.Bounds) ([]models.Park, error) {
	if !bounds.Valid() {
		return []models.Park{}, nil
	}

	where, args := boundsPredicate(bounds, 1)
	parks, err := s.queryParks(ctx,
		"SELECT "+parkColumns+" FROM dog_parks WHERE "+where+" ORDER BY name, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("finding parks within bounds: %w", err)
	}

	inside := parks[:0]
	for _, p := range parks {
		if bounds.Contains(geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}) {
			inside = append(inside, p)
		}
	}
	return inside, nil
}

func (s *ParkService) Search(ctx context.Context, query string) ([]models.ParkWithDistance, error) {
	return s.search(ctx, query, nil)
}

// SearchWithLocation ranks text matches first and uses the distance from
// the given point only to order parks of equal relevance. An invalid point
// is ignored.
func (s *ParkService) SearchWithLocation(ctx context.Context, query string, latitude, longitude float64) ([]models.ParkWithDistance, error) {
	origin := geo.Point{Latitude: latitude, Longitude: longitude}
	if !origin.Valid() {
		return s.search(ctx, query, nil)
	}
	return s.search(ctx, query, &origin)
}

type rankedPark struct {
	park models.ParkWithDistance
	rank int
}

func (s *ParkService) search(ctx context.Context, query string, origin *geo.Point) ([]models.ParkWithDistance, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ParkWithDistance{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+parkColumns+`,
		        CASE
		          WHEN name ILIKE $1 THEN 1
		          WHEN description ILIKE $1 THEN 2
		          WHEN address ILIKE $1 THEN 3
		          ELSE 4
		        END
		 FROM dog_parks
		 WHERE name ILIKE $1 OR description ILIKE $1 OR address ILIKE $1 OR borough ILIKE $1`,
		"%"+escapeLike(query)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("searching parks: %w", err)
	}
	defer rows.Close()

	var ranked []rankedPark
	for rows.Next() {
		var p models.Park
		var rank int
		if err := rows.Scan(append(parkScanTargets(&p), &rank)...); err != nil {
			return nil, fmt.Errorf("scanning park: %w", err)
		}
		normalizePark(&p)
		item := rankedPark{park: models.ParkWithDistance{Park: p}, rank: rank}
		if origin != nil {
			distance := geo.Distance(*origin, geo.Point{Latitude: p.Latitude, Longitude: p.Longitude})
			item.park.DistanceKm = &distance
		}
		ranked = append(ranked, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching parks: %w", err)
	}

	slices.SortFunc(ranked, compareRanked)

	results := make([]models.ParkWithDistance, 0, min(len(ranked), MaxSearchResults))
	for i := 0; i < len(ranked) && i < MaxSearchResults; i++ {
		results = append(results, ranked[i].park)
	}
	return results, nil
}

func compareRanked(a, b rankedPark) int {
	if c := cmp.Compare(a.rank, b.rank); c != 0 {
		return c
	}
	if a.park.DistanceKm != nil && b.park.DistanceKm != nil {
		if c := cmp.Compare(*a.park.DistanceKm, *b.park.DistanceKm); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(strings.ToLower(a.park.Name), strings.ToLower(b.park.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.park.ID, b.park.ID)
}

// ImportParks upserts parks keyed on (name, address) in one transaction.
func (s *ParkService) ImportParks(ctx context.Context, parks []models.CreateParkParams) (*models.ImportResult, error) {
	for i, p := range parks {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Address) == "" {
			return nil, fmt.Errorf("park %d: name and address are required: %w", i+1, ErrInvalidInput)
		}
		if !(geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}).Valid() {
			return nil, fmt.Errorf("park %d (%s): invalid coordinates: %w", i+1, p.Name, ErrInvalidInput)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin park import: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	result := &models.ImportResult{}
	for _, p := range parks {
		amenities := p.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		var inserted bool
		err := tx.QueryRow(ctx,
			`INSERT INTO dog_parks (name, description, address, borough, zipcode, latitude, longitude, amenities, website, phone)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (name, address) DO UPDATE SET
			   description = EXCLUDED.description,
			   borough = EXCLUDED.borough,
			   zipcode = EXCLUDED.zipcode,
			   latitude = EXCLUDED.latitude,
			   longitude = EXCLUDED.longitude,
			   amenities = EXCLUDED.amenities,
			   website = EXCLUDED.website,
			   phone = EXCLUDED.phone,
			   updated_at = NOW()
			 RETURNING (xmax = 0)`,
			p.Name, p.Description, p.Address, p.Borough, p.Zipcode,
			p.Latitude, p.Longitude, amenities, p.Website, p.Phone,
		).Scan(&inserted)
		if err != nil {
			return nil, fmt.Errorf("upserting park %q: %w", p.Name, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit park import: %w", err)
	}
	committed = true
	return result, nil
}

// annotateActivity fills in visitor counts for results with one grouped
// query. ids holds the park ids in the same order as results.
func (s *ParkService) annotateActivity(ctx context.Context, results []models.ParkWithDistance, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT dog_park_id, COUNT(*)
		 FROM checkins
		 WHERE checked_out_at IS NULL AND dog_park_id = ANY($1)
		 GROUP BY dog_park_id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("counting visitors: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int, len(ids))
	for rows.Next() {
		var parkID int64
		var count int
		if err := rows.Scan(&parkID, &count); err != nil {
			return fmt.Errorf("scanning visitor count: %w", err)
		}
		counts[parkID] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("counting visitors: %w", err)
	}

	for i := range results {
		count := counts[results[i].ID]
		results[i].CurrentVisitors = &count
		results[i].ActivityLevel = models.ActivityLevelFor(count)
	}
	return nil
}

func (s *ParkService) queryParks(ctx context.Context, sql string, args ...any) ([]models.Park, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parks := []models.Park{}
	for rows.Next() {
		var p models.Park
		if err := rows.Scan(parkScanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("scanning park: %w", err)
		}
		normalizePark(&p)
		parks = append(parks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return parks, nil
}

// boundsPredicate renders b as a SQL condition on latitude and longitude,
// numbering placeholders from firstArg.
func boundsPredicate(b geo.Bounds, firstArg int) (string, []any) {
	args := []any{b.SouthWest.Latitude, b.NorthEast.Latitude, b.SouthWest.Longitude, b.NorthEast.Longitude}
	lngOp := "AND"
	if b.CrossesAntimeridian() {
		lngOp = "OR"
	}
	where := fmt.Sprintf(
		"latitude BETWEEN $%d AND $%d AND (longitude >= $%d %s longitude <= $%d)",
		firstArg, firstArg+1, firstArg+2, lngOp, firstArg+3,
	)
	return where, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func parkScanTargets(p *models.Park) []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.Address, &p.Borough, &p.Zipcode, &p.Latitude, &p.Longitude,
		&p.Amenities, &p.Rules, &p.HoursOpen, &p.HoursClose, &p.Website, &p.Phone, &p.Rating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPark(row Row) (*models.Park, error) {
	p := &models.Park{}
	if err := row.Scan(parkScanTargets(p)...); err != nil {
		return nil, err
	}
	normalizePark(p)
	return p, nil
}

func normalizePark(p *models.Park) {
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
}
