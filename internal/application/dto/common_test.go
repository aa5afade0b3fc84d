package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int64
		wantPage   int
		wantPages  int
		wantOffset int
	}{
		{"第一页", 1, 12, 30, 1, 3, 0},
		{"页码小于1夹到1", 0, 12, 30, 1, 3, 0},
		{"负页码夹到1", -5, 9, 10, 1, 2, 0},
		{"超出总页数夹到最后一页", 10, 12, 30, 3, 3, 24},
		{"整除", 2, 9, 18, 2, 2, 9},
		{"无结果时不夹页码", 4, 12, 0, 4, 0, 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.perPage, tt.total)

			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalCount)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestResponseEnvelope(t *testing.T) {
	t.Run("成功响应", func(t *testing.T) {
		resp := SuccessResponse(map[string]int{"a": 1}, "ok")

		assert.True(t, resp.Success)
		assert.Equal(t, "ok", resp.Message)
		assert.Nil(t, resp.Error)
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("错误响应", func(t *testing.T) {
		resp := ErrorResponse("NOT_FOUND", "missing", map[string]interface{}{"id": 1})

		assert.False(t, resp.Success)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
		assert.Equal(t, 1, resp.Error.Details["id"])
	})
}
