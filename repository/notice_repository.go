package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/noticeboard/models"
)

// NoticeRepository executes parameterized queries against the notice table.
// It holds an injected DB handle so tests can swap in their own database.
type NoticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository creates a repository bound to the given DB handle.
func NewNoticeRepository(db *gorm.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// List returns one page of notices ordered by creation time descending,
// optionally filtered by status, plus the unpaginated total under the same
// filter. List and count are two independent queries; under concurrent
// writes they may be transiently inconsistent.
func (r *NoticeRepository) List(status string, page, size int) ([]models.Notice, int64, error) {
	query := r.db.Model(&models.Notice{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notices []models.Notice
	offset := (page - 1) * size
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&notices).Error; err != nil {
		return nil, 0, err
	}
	return notices, total, nil
}

// Get returns the full record including content_delta.
// Missing rows surface as gorm.ErrRecordNotFound.
func (r *NoticeRepository) Get(id uint) (*models.Notice, error) {
	var notice models.Notice
	if err := r.db.First(&notice, id).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

// Create inserts a new notice. Status is always forced to draft regardless
// of what the caller set.
func (r *NoticeRepository) Create(notice *models.Notice) error {
	notice.Status = models.StatusDraft
	notice.PublishTime = nil
	return r.db.Create(notice).Error
}

// Update rewrites title, content and content_delta for the given id. Status
// and publish_time are never touched here. A missing id is not an error; the
// returned row count lets callers distinguish no-op from change.
func (r *NoticeRepository) Update(id uint, title, content, contentDelta string) (int64, error) {
	res := r.db.Model(&models.Notice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":         title,
		"content":       content,
		"content_delta": contentDelta,
	})
	return res.RowsAffected, res.Error
}

// Publish sets status to published and stamps publish_time. Republishing an
// already published notice simply re-stamps publish_time.
func (r *NoticeRepository) Publish(id uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.StatusPublished,
		"publish_time": at,
	})
	return res.RowsAffected, res.Error
}

// Delete removes a single notice permanently.
func (r *NoticeRepository) Delete(id uint) (int64, error) {
	res := r.db.Delete(&models.Notice{}, id)
	return res.RowsAffected, res.Error
}

// BatchDelete removes all notices whose id is in the given set. Callers
// validate and cap the set before storage is touched.
func (r *NoticeRepository) BatchDelete(ids []uint) (int64, error) {
	res := r.db.Delete(&models.Notice{}, "id IN ?", ids)
	return res.RowsAffected, res.Error
}
