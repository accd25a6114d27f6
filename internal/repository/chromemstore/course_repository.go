package chromemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/geo"

	"github.com/philippgille/chromem-go"
)

type CourseRepository struct {
	coll *chromem.Collection
}

func NewCourseRepository(db *chromem.DB) (contract.CourseRepository, error) {
	coll, err := db.GetOrCreateCollection(CourseCollection, nil, precomputed)
	if err != nil {
		return nil, fmt.Errorf("open chromem collection %s: %w", CourseCollection, err)
	}
	return &CourseRepository{coll: coll}, nil
}

func (r *CourseRepository) Upsert(ctx context.Context, courses []*entity.Course) error {
	for _, c := range courses {
		attrs, err := json.Marshal(c.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes of %q: %w", c.Name, err)
		}
		id := c.URL
		if id == "" {
			id = c.Name
		}
		doc := chromem.Document{
			ID: id,
			Metadata: map[string]string{
				"name":       c.Name,
				"url":        c.URL,
				"latitude":   strconv.FormatFloat(c.Latitude, 'f', -1, 64),
				"longitude":  strconv.FormatFloat(c.Longitude, 'f', -1, 64),
				"attributes": string(attrs),
			},
			Embedding: c.Profile,
			Content:   c.Name,
		}
		if err := r.coll.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add course %q: %w", c.Name, err)
		}
	}
	return nil
}

func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.coll.Count()), nil
}

// SearchNearest ranks the whole collection and applies the radius filter
// afterwards; chromem metadata filters only support equality.
func (r *CourseRepository) SearchNearest(ctx context.Context, profile []float32, limit int, g *contract.GeoFilter) ([]*contract.ScoredCourse, error) {
	if limit <= 0 {
		limit = 5
	}
	total := r.coll.Count()
	if total == 0 {
		return nil, nil
	}

	res, err := r.coll.QueryEmbedding(ctx, profile, total, nil, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*contract.ScoredCourse, 0, limit)
	for _, doc := range res {
		c := courseFromDoc(doc)
		var dist float64
		if g != nil {
			dist = geo.DistanceKm(g.Latitude, g.Longitude, c.Latitude, c.Longitude)
			if dist > g.RadiusKm {
				continue
			}
		}
		out = append(out, &contract.ScoredCourse{Course: c, Similarity: float64(doc.Similarity), DistanceKm: dist})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func courseFromDoc(doc chromem.Result) *entity.Course {
	lat, _ := strconv.ParseFloat(doc.Metadata["latitude"], 64)
	lon, _ := strconv.ParseFloat(doc.Metadata["longitude"], 64)
	attrs := map[string]any{}
	if err := json.Unmarshal([]byte(doc.Metadata["attributes"]), &attrs); err != nil || attrs == nil {
		attrs = map[string]any{}
	}
	return &entity.Course{
		Name:       doc.Metadata["name"],
		URL:        doc.Metadata["url"],
		Latitude:   lat,
		Longitude:  lon,
		Profile:    doc.Embedding,
		Attributes: attrs,
	}
}
