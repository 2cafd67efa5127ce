package service

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"vitalquiz/internal/models"
	"vitalquiz/internal/repository"
)

// catalogFile maps image file names to their category and vital points
type catalogFile map[string]catalogImage

type catalogImage struct {
	Category string         `json:"category"`
	Points   []catalogPoint `json:"points"`
}

type catalogPoint struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Reading string `json:"reading"`
}

// CatalogService seeds the vital point catalog from a JSON data file
type CatalogService struct {
	vitalPoints *repository.VitalPointRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(vitalPoints *repository.VitalPointRepository) *CatalogService {
	return &CatalogService{vitalPoints: vitalPoints}
}

// SeedFromFile loads the catalog JSON and upserts every vital point,
// keyed on (image file, number, name) so reseeding updates readings and
// categories without touching learning history. Returns created and
// updated row counts.
func (s *CatalogService) SeedFromFile(path string) (int, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog catalogFile
	if err := json.Unmarshal(content, &catalog); err != nil {
		return 0, 0, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	// Deterministic insertion order so catalog ids are stable per file
	imageFiles := make([]string, 0, len(catalog))
	for imageFile := range catalog {
		imageFiles = append(imageFiles, imageFile)
	}
	sort.Strings(imageFiles)

	created, updated := 0, 0
	for _, imageFile := range imageFiles {
		image := catalog[imageFile]
		for _, point := range image.Points {
			vp := &models.VitalPoint{
				Number:    point.Number,
				Name:      point.Name,
				Reading:   point.Reading,
				Category:  image.Category,
				ImageFile: imageFile,
			}

			wasCreated, err := s.vitalPoints.Upsert(vp)
			if err != nil {
				return created, updated, fmt.Errorf("failed to seed vital point %s %s: %w", point.Number, point.Name, err)
			}
			if wasCreated {
				created++
			} else {
				updated++
			}
		}
	}

	return created, updated, nil
}
