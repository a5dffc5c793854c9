package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/noticeboard/models"
	"github.com/cppla/noticeboard/repository"
	"github.com/cppla/noticeboard/utils"
)

// NoticeController manages CRUD and publish operations for notices.
type NoticeController struct {
	repo *repository.NoticeRepository
}

// NewNoticeController creates a new NoticeController instance.
func NewNoticeController(repo *repository.NoticeRepository) *NoticeController {
	return &NoticeController{repo: repo}
}

type noticeRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ContentDelta string `json:"content_delta"`
}

// ListNotices returns one page of notices plus the total count under the
// same status filter.
func (n *NoticeController) ListNotices(ctx *gin.Context) {
	page, size, err := utils.ParsePagination(ctx.Query("page"), ctx.Query("size"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	status := ctx.Query("status")
	if err := utils.ValidateStatus(status); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	notices, total, err := n.repo.List(status, page, size)
	if err != nil {
		utils.Sugar.Errorf("list notices failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}

	utils.Success(ctx, gin.H{
		"items": notices,
		"pagination": gin.H{
			"page":        page,
			"size":        size,
			"total":       total,
			"total_pages": int((total + int64(size) - 1) / int64(size)),
		},
	})
}

// GetNotice returns a single record including content_delta. A missing row
// answers 400 rather than 404, matching what the client expects.
func (n *NoticeController) GetNotice(ctx *gin.Context) {
	id, err := utils.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	notice, err := n.repo.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusBadRequest, "not found")
			return
		}
		utils.Sugar.Errorf("get notice %d failed: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"notice": notice})
}

// CreateNotice inserts a new draft notice.
func (n *NoticeController) CreateNotice(ctx *gin.Context) {
	var req noticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	title := utils.Sanitize(req.Title)
	content := utils.Sanitize(req.Content)
	if err := utils.ValidateTitle(title); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateContent(content); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	notice := models.Notice{
		Title:        title,
		Content:      content,
		ContentDelta: req.ContentDelta, // opaque editor payload, never sanitized
	}
	if err := n.repo.Create(&notice); err != nil {
		utils.Sugar.Errorf("create notice failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"id": notice.ID})
}

// UpdateNotice rewrites title, content and content_delta. Status is never
// touched here. Updating a missing id succeeds silently.
func (n *NoticeController) UpdateNotice(ctx *gin.Context) {
	id, err := utils.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var req noticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	title := utils.Sanitize(req.Title)
	content := utils.Sanitize(req.Content)
	if err := utils.ValidateTitle(title); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateContent(content); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	affected, err := n.repo.Update(id, title, content, req.ContentDelta)
	if err != nil {
		utils.Sugar.Errorf("update notice %d failed: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"affected": affected})
}

// PublishNotice transitions a notice to published and stamps publish_time.
// Publishing again re-stamps publish_time only.
func (n *NoticeController) PublishNotice(ctx *gin.Context) {
	id, err := utils.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	affected, err := n.repo.Publish(id, time.Now())
	if err != nil {
		utils.Sugar.Errorf("publish notice %d failed: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"affected": affected})
}

// DeleteNotice removes a single notice permanently.
func (n *NoticeController) DeleteNotice(ctx *gin.Context) {
	id, err := utils.ParseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := n.repo.Delete(id); err != nil {
		utils.Sugar.Errorf("delete notice %d failed: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"message": "notice deleted"})
}

// BatchDeleteNotices removes up to 100 notices in one call. The id set is
// validated before storage is touched.
func (n *NoticeController) BatchDeleteNotices(ctx *gin.Context) {
	var req struct {
		IDs []interface{} `json:"ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.ErrBadIDList.Error())
		return
	}

	ids, err := utils.ParseIDList(req.IDs)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	affected, err := n.repo.BatchDelete(ids)
	if err != nil {
		utils.Sugar.Errorf("batch delete notices failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "server error")
		return
	}
	utils.Success(ctx, gin.H{"deleted": affected})
}
