package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID. Soft-deleted tasks are returned so that
// historical assignments keep resolving their task.
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List lists live tasks matching filter
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.Department != nil {
		query = query.Where("department = ?", *filter.Department)
	}
	if filter.Custom != nil {
		query = query.Where("is_custom = ?", *filter.Custom)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("department ASC, title ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ReplaceCatalog soft-deletes all non-custom tasks and inserts the new catalog.
// Either everything is written or nothing is.
func (r *GormTaskRepository) ReplaceCatalog(ctx context.Context, tasks []models.Task) (int64, error) {
	var replaced int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("is_custom = ?", false).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		replaced = res.RowsAffected

		if len(tasks) == 0 {
			return nil
		}
		return tx.CreateInBatches(&tasks, 100).Error
	})
	if err != nil {
		return 0, err
	}
	return replaced, nil
}
