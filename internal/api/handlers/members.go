package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/auth"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/internal/validation"
	"github.com/careeyes/fod/pkg/dto"
)

type MemberStore interface {
	CreateMember(ctx context.Context, m *models.Member) error
	CountDuplicates(ctx context.Context, memberID, email, phone string) (int, error)
	GetMemberByID(ctx context.Context, memberID string) (*models.Member, error)
	GetMemberByKakaoID(ctx context.Context, kakaoID int64) (*models.Member, error)
	UpdateKakaoID(ctx context.Context, memberID string, kakaoID int64) error
	ListWorkers(ctx context.Context) ([]models.Member, error)
}

const (
	msgDuplicateMember = "이미 사용 중인 아이디, 이메일 또는 전화번호입니다."
	msgLoginFailed     = "아이디 또는 비밀번호가 일치하지 않습니다."
	msgKakaoLinked     = "이미 다른 계정에 연동된 카카오 계정입니다."
)

type MemberHandler struct {
	store    MemberStore
	sessions *auth.SessionManager
}

func NewMemberHandler(store MemberStore, sessions *auth.SessionManager) *MemberHandler {
	validation.Engine()
	return &MemberHandler{store: store, sessions: sessions}
}

func (h *MemberHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "fields": fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	count, err := h.store.CountDuplicates(ctx, req.MemberID, req.Email, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": msgDuplicateMember})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	m := &models.Member{
		MemberID:     req.MemberID,
		PasswordHash: hash,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         models.RoleMember,
		Company:      req.Company,
		Department:   req.Department,
		AlertState:   1,
	}
	if err := h.store.CreateMember(ctx, m); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": msgDuplicateMember})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	slog.Info("member registered", "member_id", m.MemberID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "memberId": m.MemberID})
}

func (h *MemberHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.LoginError(err).Error()})
		return
	}

	m, err := h.store.GetMemberByID(c.Request.Context(), req.MemberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if m == nil || !auth.CheckPassword(m.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgLoginFailed})
		return
	}

	token, err := h.sessions.Issue(m.MemberID, m.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.sessions.SetCookie(c, token)

	c.JSON(http.StatusOK, dto.LoginResponse{
		MemberID:   m.MemberID,
		MemberRole: m.Role,
		MemberName: m.Name,
	})
}

// Duplicate counts members already holding the id, email or phone.
func (h *MemberHandler) Duplicate(c *gin.Context) {
	var req dto.DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.store.CountDuplicates(c.Request.Context(), req.MemberID, req.Email, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, count)
}

func (h *MemberHandler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "로그아웃 되었습니다."})
}

// LinkKakao attaches a Kakao account to the logged-in member.
func (h *MemberHandler) LinkKakao(c *gin.Context) {
	claims, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	var req dto.LinkKakaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.store.GetMemberByKakaoID(ctx, req.KakaoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil && existing.MemberID != claims.MemberID {
		c.JSON(http.StatusConflict, gin.H{"error": msgKakaoLinked})
		return
	}

	if err := h.store.UpdateKakaoID(ctx, claims.MemberID, req.KakaoID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		case errors.Is(err, storage.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": msgKakaoLinked})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "카카오 계정 연동 완료"})
}

func (h *MemberHandler) WorkerList(c *gin.Context) {
	workers, err := h.store.ListWorkers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := make([]dto.WorkerResponse, 0, len(workers))
	for _, m := range workers {
		resp = append(resp, dto.NewWorkerResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

// Validate runs the registration rules without creating a member, for
// live feedback while the form is being filled in.
func (h *MemberHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ValidateResponse{
		ID:       validation.ValidateID(req.MemberID),
		Password: validation.ValidatePassword(req.MemberPw),
		Match:    validation.ValidatePasswordMatch(req.MemberPw, req.MemberPwConfirm),
		Phone:    validation.ValidatePhone(validation.SplitPhone(req.Phone)),
	})
}
