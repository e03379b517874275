package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing cattle-monitor database schema...")

	// Collar fixes, newest first per device. The analyzer reads the two most
	// recent rows per device (current + previous fix).
	positionsTableSQL := `
	CREATE TABLE IF NOT EXISTS device_positions(
		id INT NOT NULL AUTO_INCREMENT,
		device_id VARCHAR(64) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		voltage DOUBLE NOT NULL DEFAULT 0,
		percent DOUBLE NOT NULL DEFAULT 0,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX device_time_index (device_id, recorded_at)
	)`

	if _, err := db.Exec(positionsTableSQL); err != nil {
		return fmt.Errorf("failed to create device_positions table: %w", err)
	}
	log.Info("Device_positions table created/verified")

	// Fences are stored with their boundary as a GeoJSON feature, the same
	// format the rest of the platform uses for areas.
	geofencesTableSQL := `
	CREATE TABLE IF NOT EXISTS geofences(
		id INT NOT NULL AUTO_INCREMENT,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(255),
		enabled BOOL NOT NULL DEFAULT true,
		cattle_ids JSON,
		boundary JSON NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX user_id_index (user_id),
		INDEX enabled_index (enabled)
	)`

	if _, err := db.Exec(geofencesTableSQL); err != nil {
		return fmt.Errorf("failed to create geofences table: %w", err)
	}
	log.Info("Geofences table created/verified")

	log.Info("Cattle-monitor database schema initialization completed")
	return nil
}
