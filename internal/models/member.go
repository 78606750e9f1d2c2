package models

import "time"

type Member struct {
	MemberID     string    `json:"memberId" db:"member_id"`
	PasswordHash string    `json:"-" db:"member_pw"`
	Name         string    `json:"memberName" db:"member_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Role         string    `json:"memberRole" db:"member_role"`
	Company      string    `json:"company" db:"company"`
	Department   string    `json:"department" db:"department"`
	KakaoID      *int64    `json:"kakaoId,omitempty" db:"kakao_id"`
	AlertState   int       `json:"alertState" db:"alert_state"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
