package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds the multi-column indexes the list and report queries rely on.
// Single-column indexes live on the model tags.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Supervisor dashboards filter by owner and day
		{"task_assignments", "idx_assignments_assigned_to_date", "assigned_to, assigned_date"},
		// Staff inbox
		{"task_assignments", "idx_assignments_forwarded_to_status", "forwarded_to, status"},
		// Daily report
		{"task_assignments", "idx_assignments_date_status", "assigned_date, status"},
		// Unread feed, newest first
		{"notifications", "idx_notifications_user_created", "user_id, created_at"},
		// Catalog replace
		{"tasks", "idx_tasks_custom_active", "is_custom, is_active"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
