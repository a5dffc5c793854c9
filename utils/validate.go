package utils

import (
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/cppla/noticeboard/models"
)

const (
	MaxTitleLen   = 255
	MaxContentLen = 50000
	MaxPageSize   = 100
	MaxBatchIDs   = 100
)

var (
	ErrInvalidID    = errors.New("Invalid ID")
	ErrBadPaging    = errors.New("page/size invalid")
	ErrBadStatus    = errors.New("invalid status")
	ErrBadIDList    = errors.New("ids invalid")
	ErrTooManyIDs   = errors.New("Too many IDs in batch operation (max 100)")
	ErrTitleEmpty   = errors.New("Title is required")
	ErrTitleTooLong = errors.New("Title is too long (max 255 characters)")
	ErrContentEmpty = errors.New("Content is required")
	ErrContentLong  = errors.New("Content is too long (max 50000 characters)")
)

// ValidateTitle checks a sanitized title against presence and length limits.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrTitleEmpty
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

// ValidateContent checks sanitized content against presence and length limits.
func ValidateContent(content string) error {
	if content == "" {
		return ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return ErrContentLong
	}
	return nil
}

// ParseID parses a path parameter into a notice id. Zero and negative values
// are rejected: ids start at 1, so 0 can only come from bad input.
func ParseID(raw string) (uint, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

// ParsePagination resolves page/size query parameters. Absent values default
// to page 1 and size 10; present values must be positive and size may not
// exceed MaxPageSize.
func ParsePagination(pageStr, sizeStr string) (int, int, error) {
	page, size := 1, 10
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, ErrBadPaging
		}
		page = p
	}
	if sizeStr != "" {
		s, err := strconv.Atoi(sizeStr)
		if err != nil || s <= 0 || s > MaxPageSize {
			return 0, 0, ErrBadPaging
		}
		size = s
	}
	return page, size, nil
}

// ValidateStatus checks an optional status filter. Empty means no filter.
func ValidateStatus(status string) error {
	switch status {
	case "", models.StatusDraft, models.StatusPublished:
		return nil
	}
	return ErrBadStatus
}

// ParseIDList coerces a raw JSON ids array into a deduplicated id set.
// Entries that are not positive numbers are dropped rather than fatal, to
// match the loose coercion the clients rely on. The surviving set must be
// non-empty and hold at most MaxBatchIDs entries.
func ParseIDList(raw []interface{}) ([]uint, error) {
	if len(raw) == 0 {
		return nil, ErrBadIDList
	}
	ids := make([]uint, 0, len(raw))
	for _, entry := range raw {
		var n int64
		switch v := entry.(type) {
		case float64:
			n = int64(v)
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				continue
			}
			n = parsed
		default:
			continue
		}
		if n > 0 {
			ids = append(ids, uint(n))
		}
	}
	ids = UniqueUint(ids)
	if len(ids) == 0 {
		return nil, ErrBadIDList
	}
	if len(ids) > MaxBatchIDs {
		return nil, ErrTooManyIDs
	}
	return ids, nil
}
