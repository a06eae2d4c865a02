package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/database"
	"github.com/fuelops/task-tracker/internal/models"
)

// listOrder puts unresolved work first, then submitted, then completed.
const listOrder = "CASE task_assignments.status WHEN 'submitted' THEN 1 WHEN 'completed' THEN 2 ELSE 0 END, " +
	"task_assignments.assigned_date DESC, task_assignments.created_at DESC"

// GormAssignmentRepository is a GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// Create creates a new assignment
func (r *GormAssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// CreateBatch creates several assignments
func (r *GormAssignmentRepository) CreateBatch(ctx context.Context, list []models.Assignment) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&list).Error
}

// FindByID finds an assignment with its relations
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("task_assignments.id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List retrieves assignments with filtering and pagination
func (r *GormAssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	list := []models.Assignment{}
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Scopes(r.filter(filter))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.withRelations(query).Order(listOrder)
	if filter.Page.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Page))
	}

	if err := listQuery.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountByStatus groups the filtered assignments by status and result
func (r *GormAssignmentRepository) CountByStatus(ctx context.Context, filter AssignmentFilter) ([]StatusCount, error) {
	rows := []StatusCount{}
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Scopes(r.filter(filter)).
		Select("task_assignments.status AS status, task_assignments.result AS result, COUNT(*) AS count").
		Group("task_assignments.status, task_assignments.result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateIfCurrent performs the single conditional write every transition goes through.
// It returns gorm.ErrRecordNotFound when the row is gone and ErrStaleWrite when the
// status or version no longer match.
func (r *GormAssignmentRepository) UpdateIfCurrent(ctx context.Context, next *models.Assignment, expectStatus models.AssignmentStatus) error {
	now := time.Now().UTC()
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Assignment{}).
		Where("id = ? AND status = ? AND version = ?", next.ID, expectStatus, next.Version).
		Updates(map[string]interface{}{
			"status":           next.Status,
			"forwarded_to":     next.ForwardedTo,
			"result":           next.Result,
			"attachments":      next.Attachments,
			"staff_notes":      next.StaffNotes,
			"supervisor_notes": next.SupervisorNotes,
			"forwarded_at":     next.ForwardedAt,
			"submitted_at":     next.SubmittedAt,
			"completed_at":     next.CompletedAt,
			"updated_at":       now,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Assignment{}).Where("id = ?", next.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStaleWrite
	}

	next.Version++
	next.UpdatedAt = now
	return nil
}

func (r *GormAssignmentRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Task", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Supervisor").
		Preload("Staff")
}

func (r *GormAssignmentRepository) filter(f AssignmentFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.AssignedTo != "" {
			db = db.Where("task_assignments.assigned_to = ?", f.AssignedTo)
		}
		if f.ForwardedTo != "" {
			db = db.Where("task_assignments.forwarded_to = ?", f.ForwardedTo)
		}
		if f.TaskID != "" {
			db = db.Where("task_assignments.task_id = ?", f.TaskID)
		}
		if f.Department != nil {
			taskIDs := r.db.Unscoped().Model(&models.Task{}).Select("id").Where("department = ?", *f.Department)
			db = db.Where("task_assignments.task_id IN (?)", taskIDs)
		}
		if len(f.Statuses) > 0 {
			db = db.Where("task_assignments.status IN ?", f.Statuses)
		}
		if f.Result != nil {
			db = db.Where("task_assignments.result = ?", *f.Result)
		}
		return db.Scopes(database.DateRange("task_assignments.assigned_date", f.DateFrom, f.DateTo))
	}
}
