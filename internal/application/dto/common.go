package dto

import "time"

// Response 通用响应结构
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorInfo 错误信息
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(data interface{}, message string) *Response {
	return &Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ErrorResponse 错误响应
func ErrorResponse(code, message string, details map[string]interface{}) *Response {
	return &Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// PaginatedResponse 分页响应
type PaginatedResponse[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
}

// Pagination 分页计算结果
type Pagination struct {
	Page       int
	PerPage    int
	TotalPages int
	TotalCount int64
}

// NewPagination 计算总页数并把页码夹到有效范围
func NewPagination(page, perPage int, total int64) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalCount: total,
	}
}

// Offset 当前页的偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
