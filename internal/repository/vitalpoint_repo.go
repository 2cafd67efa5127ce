package repository

import (
	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
)

// VitalPointRepository handles vital point catalog database operations
type VitalPointRepository struct {
	db database.DBTX
}

// NewVitalPointRepository creates a new vital point repository
func NewVitalPointRepository(db database.DBTX) *VitalPointRepository {
	return &VitalPointRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *VitalPointRepository) WithTx(tx *database.Tx) *VitalPointRepository {
	return &VitalPointRepository{db: tx}
}

// GetAll retrieves the full catalog in load order
func (r *VitalPointRepository) GetAll() ([]models.VitalPoint, error) {
	query := `
		SELECT id, number, name, reading, category, image_file
		FROM vital_points
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.VitalPoint
	for rows.Next() {
		var vp models.VitalPoint
		err := rows.Scan(&vp.ID, &vp.Number, &vp.Name, &vp.Reading, &vp.Category, &vp.ImageFile)
		if err != nil {
			return nil, err
		}
		points = append(points, vp)
	}

	return points, rows.Err()
}

// GetByID retrieves a single vital point, or nil if it does not exist
func (r *VitalPointRepository) GetByID(id int64) (*models.VitalPoint, error) {
	query := `
		SELECT id, number, name, reading, category, image_file
		FROM vital_points
		WHERE id = ?
	`

	vp := &models.VitalPoint{}
	err := r.db.QueryRow(query, id).Scan(&vp.ID, &vp.Number, &vp.Name, &vp.Reading, &vp.Category, &vp.ImageFile)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return vp, nil
}

// Count returns the number of catalog entries
func (r *VitalPointRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM vital_points").Scan(&count)
	return count, err
}

// Upsert creates or updates a catalog entry keyed on (image_file, number, name).
// Reading and category are refreshed on existing rows so reseeding the
// catalog never disturbs learning history. Returns true when a row was created.
func (r *VitalPointRepository) Upsert(vp *models.VitalPoint) (bool, error) {
	query := `
		SELECT id FROM vital_points
		WHERE image_file = ? AND number = ? AND name = ?
	`

	var existingID int64
	err := r.db.QueryRow(query, vp.ImageFile, vp.Number, vp.Name).Scan(&existingID)
	if err != nil && !isNoRows(err) {
		return false, err
	}

	if err == nil {
		update := `
			UPDATE vital_points
			SET reading = ?, category = ?
			WHERE id = ?
		`
		if _, err := r.db.Exec(update, vp.Reading, vp.Category, existingID); err != nil {
			return false, err
		}
		vp.ID = existingID
		return false, nil
	}

	insert := `
		INSERT INTO vital_points (number, name, reading, category, image_file)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(insert, vp.Number, vp.Name, vp.Reading, vp.Category, vp.ImageFile)
	if err != nil {
		return false, err
	}
	vp.ID = id
	return true, nil
}
