package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/noticeboard/config"
	"github.com/cppla/noticeboard/models"
	"github.com/cppla/noticeboard/repository"
	"github.com/cppla/noticeboard/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.InitLogger(config.AppConfig{LogLevel: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type envelope struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data map[string]interface{} `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *repository.NoticeRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Notice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := repository.NewNoticeRepository(db)
	nc := NewNoticeController(repo)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/notices", nc.ListNotices)
	api.GET("/notices/:id", nc.GetNotice)
	api.POST("/notices", nc.CreateNotice)
	api.PUT("/notices/:id", nc.UpdateNotice)
	api.POST("/notices/:id/publish", nc.PublishNotice)
	api.DELETE("/notices/:id", nc.DeleteNotice)
	api.POST("/notices/batch_delete", nc.BatchDeleteNotices)
	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "not found")
	})
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
	}
	return w, env
}

func createNotice(t *testing.T, r *gin.Engine, title, content, delta string) uint {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/notices", gin.H{
		"title":         title,
		"content":       content,
		"content_delta": delta,
	})
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("create failed: status=%d env=%+v", w.Code, env)
	}
	id, ok := env.Data["id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("create returned bad id: %+v", env.Data)
	}
	return uint(id)
}

func TestCreateSanitizesContentButNotDelta(t *testing.T) {
	r, _ := newTestRouter(t)
	payload := `<script>alert(1)</script><p>body</p>`
	id := createNotice(t, r, "hello", payload, payload)

	w, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/notices/%d", id), nil)
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("get failed: status=%d env=%+v", w.Code, env)
	}
	notice := env.Data["notice"].(map[string]interface{})
	content := notice["content"].(string)
	if strings.Contains(content, "<script") || strings.Contains(content, "alert(1)") {
		t.Fatalf("stored content not sanitized: %q", content)
	}
	if !strings.Contains(content, "<p>body</p>") {
		t.Fatalf("benign markup lost: %q", content)
	}
	if notice["content_delta"].(string) != payload {
		t.Fatalf("content_delta was altered: %q", notice["content_delta"])
	}
	if notice["status"].(string) != models.StatusDraft {
		t.Fatalf("status = %v, want draft", notice["status"])
	}
	if notice["publish_time"] != nil {
		t.Fatalf("publish_time = %v, want null", notice["publish_time"])
	}
}

func TestCreateValidation(t *testing.T) {
	r, repo := newTestRouter(t)
	tests := []struct {
		name    string
		title   string
		content string
		wantMsg string
	}{
		{"missing title", "", "body", "Title is required"},
		{"long title", strings.Repeat("a", 256), "body", "Title is too long (max 255 characters)"},
		{"missing content", "t", "", "Content is required"},
		{"long content", "t", strings.Repeat("a", 50001), "Content is too long (max 50000 characters)"},
		{"whitespace-only title", "   ", "body", "Title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doJSON(t, r, http.MethodPost, "/api/notices", gin.H{"title": tt.title, "content": tt.content})
			if w.Code != http.StatusBadRequest || env.Code != utils.CodeFail {
				t.Fatalf("status=%d env=%+v, want 400 failure", w.Code, env)
			}
			if env.Msg != tt.wantMsg {
				t.Fatalf("msg = %q, want %q", env.Msg, tt.wantMsg)
			}
		})
	}
	// Nothing was written on any rejected request.
	if _, total, err := repo.List("", 1, 10); err != nil || total != 0 {
		t.Fatalf("rows written despite validation failures: total=%d err=%v", total, err)
	}
}

func TestInvalidIDRejectedEverywhere(t *testing.T) {
	r, _ := newTestRouter(t)
	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/notices/0"},
		{http.MethodGet, "/api/notices/abc"},
		{http.MethodGet, "/api/notices/-1"},
		{http.MethodPut, "/api/notices/0"},
		{http.MethodDelete, "/api/notices/abc"},
		{http.MethodPost, "/api/notices/0/publish"},
	}
	for _, req := range requests {
		t.Run(req.method+" "+req.path, func(t *testing.T) {
			w, env := doJSON(t, r, req.method, req.path, gin.H{"title": "t", "content": "c"})
			if w.Code != http.StatusBadRequest || env.Msg != "Invalid ID" {
				t.Fatalf("status=%d msg=%q, want 400 Invalid ID", w.Code, env.Msg)
			}
		})
	}
}

func TestGetMissingNoticeIs400(t *testing.T) {
	r, _ := newTestRouter(t)
	w, env := doJSON(t, r, http.MethodGet, "/api/notices/999", nil)
	if w.Code != http.StatusBadRequest || env.Code != utils.CodeFail || env.Msg != "not found" {
		t.Fatalf("status=%d env=%+v, want 400 not found", w.Code, env)
	}
}

func TestListPaginationBoundsAndFilter(t *testing.T) {
	r, repo := newTestRouter(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		n := models.Notice{Title: fmt.Sprintf("n-%02d", i), Content: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(&n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/notices?page=1&size=10", nil)
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("list failed: status=%d env=%+v", w.Code, env)
	}
	items := env.Data["items"].([]interface{})
	if len(items) != 10 {
		t.Fatalf("len(items) = %d, want 10", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["title"].(string) != "n-11" {
		t.Fatalf("first item = %v, want newest (n-11)", first["title"])
	}
	pagination := env.Data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 12 {
		t.Fatalf("total = %v, want 12", pagination["total"])
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/notices?page=1&size=100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("size=100 rejected: %d", w.Code)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/notices?page=1&size=101", nil)
	if w.Code != http.StatusBadRequest || env.Msg != "page/size invalid" {
		t.Fatalf("size=101: status=%d msg=%q, want 400 page/size invalid", w.Code, env.Msg)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/notices?page=0&size=10", nil)
	if w.Code != http.StatusBadRequest || env.Msg != "page/size invalid" {
		t.Fatalf("page=0: status=%d msg=%q", w.Code, env.Msg)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/notices?status=archived", nil)
	if w.Code != http.StatusBadRequest || env.Msg != "invalid status" {
		t.Fatalf("bad status filter: status=%d msg=%q", w.Code, env.Msg)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/notices?status=draft", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("draft filter rejected: %d", w.Code)
	}
	if env.Data["pagination"].(map[string]interface{})["total"].(float64) != 12 {
		t.Fatalf("draft total = %v, want 12", env.Data["pagination"])
	}
}

func TestUpdateRewritesFieldsOnly(t *testing.T) {
	r, repo := newTestRouter(t)
	id := createNotice(t, r, "before", "<p>old</p>", "old-delta")
	if _, err := repo.Publish(id, time.Now()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	w, env := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/notices/%d", id), gin.H{
		"title":         "after",
		"content":       "<p>new</p>",
		"content_delta": "new-delta",
	})
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("update failed: status=%d env=%+v", w.Code, env)
	}

	got, err := repo.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "after" || got.Content != "<p>new</p>" || got.ContentDelta != "new-delta" {
		t.Fatalf("fields not rewritten: %+v", got)
	}
	if got.Status != models.StatusPublished {
		t.Fatalf("update touched status: %q", got.Status)
	}
}

func TestUpdateMissingIDSucceedsSilently(t *testing.T) {
	r, _ := newTestRouter(t)
	w, env := doJSON(t, r, http.MethodPut, "/api/notices/999", gin.H{"title": "t", "content": "c"})
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("status=%d env=%+v, want silent success", w.Code, env)
	}
	if env.Data["affected"].(float64) != 0 {
		t.Fatalf("affected = %v, want 0", env.Data["affected"])
	}
}

func TestPublishStampsAndRestamps(t *testing.T) {
	r, repo := newTestRouter(t)
	id := createNotice(t, r, "n", "c", "")

	w, env := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/notices/%d/publish", id), nil)
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("publish failed: status=%d env=%+v", w.Code, env)
	}
	got, _ := repo.Get(id)
	if got.Status != models.StatusPublished || got.PublishTime == nil {
		t.Fatalf("after publish: status=%q publish_time=%v", got.Status, got.PublishTime)
	}
	firstStamp := *got.PublishTime

	time.Sleep(20 * time.Millisecond)
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/notices/%d/publish", id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("republish failed: %d", w.Code)
	}
	got, _ = repo.Get(id)
	if got.Status != models.StatusPublished {
		t.Fatalf("republish changed status: %q", got.Status)
	}
	if !got.PublishTime.After(firstStamp) {
		t.Fatalf("publish_time not re-stamped: first=%v second=%v", firstStamp, got.PublishTime)
	}
}

func TestDeleteNotice(t *testing.T) {
	r, repo := newTestRouter(t)
	id := createNotice(t, r, "n", "c", "")

	w, env := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/notices/%d", id), nil)
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("delete failed: status=%d env=%+v", w.Code, env)
	}
	if _, err := repo.Get(id); err == nil {
		t.Fatal("notice still present after delete")
	}
}

func TestBatchDelete(t *testing.T) {
	r, repo := newTestRouter(t)
	var ids []interface{}
	for i := 0; i < 100; i++ {
		ids = append(ids, float64(createNotice(t, r, fmt.Sprintf("n-%d", i), "c", "")))
	}

	// 101 ids: rejected before storage is touched.
	over := append(append([]interface{}{}, ids...), float64(500))
	w, env := doJSON(t, r, http.MethodPost, "/api/notices/batch_delete", gin.H{"ids": over})
	if w.Code != http.StatusBadRequest || env.Msg != "Too many IDs in batch operation (max 100)" {
		t.Fatalf("101 ids: status=%d msg=%q", w.Code, env.Msg)
	}
	if _, total, _ := repo.List("", 1, 10); total != 100 {
		t.Fatalf("rows deleted despite rejection: total=%d", total)
	}

	// Garbage-only list.
	w, env = doJSON(t, r, http.MethodPost, "/api/notices/batch_delete", gin.H{"ids": []interface{}{0, -1, "x"}})
	if w.Code != http.StatusBadRequest || env.Msg != "ids invalid" {
		t.Fatalf("garbage ids: status=%d msg=%q", w.Code, env.Msg)
	}

	// Empty list.
	w, env = doJSON(t, r, http.MethodPost, "/api/notices/batch_delete", gin.H{"ids": []interface{}{}})
	if w.Code != http.StatusBadRequest || env.Msg != "ids invalid" {
		t.Fatalf("empty ids: status=%d msg=%q", w.Code, env.Msg)
	}

	// 100 valid ids: all deleted.
	w, env = doJSON(t, r, http.MethodPost, "/api/notices/batch_delete", gin.H{"ids": ids})
	if w.Code != http.StatusOK || env.Code != utils.CodeOK {
		t.Fatalf("batch delete failed: status=%d env=%+v", w.Code, env)
	}
	if env.Data["deleted"].(float64) != 100 {
		t.Fatalf("deleted = %v, want 100", env.Data["deleted"])
	}
	if _, total, _ := repo.List("", 1, 10); total != 0 {
		t.Fatalf("total after batch delete = %d, want 0", total)
	}
}

func TestUnmatchedRouteEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)
	w, env := doJSON(t, r, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound || env.Code != utils.CodeFail || env.Msg != "not found" {
		t.Fatalf("status=%d env=%+v, want 404 not found envelope", w.Code, env)
	}
}
