package models

// VitalPoint is one catalog entry the learner must memorize.
// Rows are seeded at startup and read-only afterwards.
type VitalPoint struct {
	ID        int64
	Number    string
	Name      string
	Reading   string
	Category  string
	ImageFile string
}
