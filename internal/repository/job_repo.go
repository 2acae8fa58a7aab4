package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// JobFilter narrows job listings.
type JobFilter struct {
	Status     models.JobStatus
	Printer    string
	Discipline string
	Search     string
	Page       int
	PageSize   int
}

// JobRepository persists print jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (models.Job, error)
	List(ctx context.Context, filter JobFilter) ([]models.Job, int64, error)
	ListAll(ctx context.Context) ([]models.Job, error)
	FindActiveDuplicate(ctx context.Context, fileHash, studentEmail string) (*models.Job, error)
	TransitionStatus(ctx context.Context, id string, from, to models.JobStatus) error
	Save(ctx context.Context, job *models.Job) error
	UpdatePaths(ctx context.Context, id, filePath, metadataPath string) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository constructs a repository backed by GORM.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error)
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Preload("Payment").First(&job, "id = ?", id).Error
	return job, err
}

func (r *jobRepository) List(ctx context.Context, filter JobFilter) ([]models.Job, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Job{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Printer != "" {
		query = query.Where("printer = ?", filter.Printer)
	}
	if filter.Discipline != "" {
		query = query.Where("discipline = ?", filter.Discipline)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"LOWER(student_name) LIKE ? OR LOWER(student_email) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(short_id) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var jobs []models.Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *jobRepository) ListAll(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) FindActiveDuplicate(ctx context.Context, fileHash, studentEmail string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("file_hash = ? AND student_email = ? AND status IN ?", fileHash, studentEmail, models.ActiveJobStatuses).
		Order("created_at ASC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// TransitionStatus moves the job only if it is still in the from status.
func (r *jobRepository) TransitionStatus(ctx context.Context, id string, from, to models.JobStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *jobRepository) Save(ctx context.Context, job *models.Job) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(job).Error)
}

// UpdatePaths points the job at relocated files without touching any other column.
func (r *jobRepository) UpdatePaths(ctx context.Context, id, filePath, metadataPath string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"file_path": filePath, "metadata_path": metadataPath})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the job with its payment and events in one transaction.
func (r *jobRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Job{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *jobRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	var rows []struct {
		Status models.JobStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
