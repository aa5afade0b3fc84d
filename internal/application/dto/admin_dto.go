package dto

import "time"

// GenerateInviteCodesRequest 生成邀请码请求
type GenerateInviteCodesRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=10"`
}

// GenerateInviteCodesResponse 生成邀请码响应
type GenerateInviteCodesResponse struct {
	Codes []string `json:"codes"`
}

// DeleteInviteCodesRequest 删除邀请码请求
type DeleteInviteCodesRequest struct {
	Codes []string `json:"codes"`
}

// DeleteInviteCodesResponse 删除邀请码响应
type DeleteInviteCodesResponse struct {
	Deleted int64 `json:"deleted"`
}

// InviteCodeResponse 邀请码
type InviteCodeResponse struct {
	Code            string     `json:"code"`
	IsUsed          bool       `json:"is_used"`
	CreatorUsername string     `json:"creator_username,omitempty"`
	UsedByUsername  string     `json:"used_by_username,omitempty"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BanUserRequest 封禁用户请求
type BanUserRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}
