package dto

import (
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/validation"
)

// SignupRequest is the registration form plus optional affiliation.
type SignupRequest struct {
	validation.Registration
	Company    string `json:"company"`
	Department string `json:"department"`
}

type LoginRequest struct {
	validation.Login
}

// ValidateRequest carries a partially filled signup form for live feedback.
type ValidateRequest struct {
	MemberID        string `json:"memberId"`
	MemberPw        string `json:"memberPw"`
	MemberPwConfirm string `json:"memberPwConfirm"`
	Phone           string `json:"phone"`
}

type LoginResponse struct {
	MemberID   string `json:"memberId"`
	MemberRole string `json:"memberRole"`
	MemberName string `json:"memberName"`
}

type DuplicateRequest struct {
	MemberID string `json:"memberId"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type LinkKakaoRequest struct {
	KakaoID int64 `json:"kakaoId" binding:"required"`
}

// ValidateResponse reports every registration rule for live form feedback.
type ValidateResponse struct {
	ID       validation.IDResult       `json:"memberId"`
	Password validation.PasswordResult `json:"memberPw"`
	Match    validation.MatchResult    `json:"memberPwConfirm"`
	Phone    validation.PhoneResult    `json:"phone"`
}

type WorkerResponse struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Department string `json:"department"`
	AlertState int    `json:"alertState"`
}

func NewWorkerResponse(m models.Member) WorkerResponse {
	return WorkerResponse{
		MemberID:   m.MemberID,
		MemberName: m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Company:    m.Company,
		Department: m.Department,
		AlertState: m.AlertState,
	}
}
