package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/auth"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/internal/validation"
	"github.com/careeyes/fod/pkg/dto"
)

type fakeMemberStore struct {
	members map[string]*models.Member
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: map[string]*models.Member{}}
}

func (f *fakeMemberStore) CreateMember(_ context.Context, m *models.Member) error {
	if _, ok := f.members[m.MemberID]; ok {
		return storage.ErrDuplicate
	}
	f.members[m.MemberID] = m
	return nil
}

func (f *fakeMemberStore) CountDuplicates(_ context.Context, id, email, phone string) (int, error) {
	n := 0
	for _, m := range f.members {
		if (id != "" && m.MemberID == id) || (email != "" && m.Email == email) || (phone != "" && m.Phone == phone) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMemberStore) GetMemberByID(_ context.Context, id string) (*models.Member, error) {
	return f.members[id], nil
}

func (f *fakeMemberStore) GetMemberByKakaoID(_ context.Context, kakaoID int64) (*models.Member, error) {
	for _, m := range f.members {
		if m.KakaoID != nil && *m.KakaoID == kakaoID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberStore) UpdateKakaoID(_ context.Context, id string, kakaoID int64) error {
	m, ok := f.members[id]
	if !ok {
		return storage.ErrNotFound
	}
	m.KakaoID = &kakaoID
	return nil
}

func (f *fakeMemberStore) ListWorkers(context.Context) ([]models.Member, error) {
	var out []models.Member
	for _, m := range f.members {
		if m.Role == models.RoleMember {
			out = append(out, *m)
		}
	}
	return out, nil
}

func newMemberHandler(t *testing.T, store *fakeMemberStore) *MemberHandler {
	t.Helper()
	sessions, err := auth.NewSessionManager(config.AuthConfig{JWTSecret: "test-secret", SessionTTL: time.Hour, CookieName: "ce_session"})
	require.NoError(t, err)
	return NewMemberHandler(store, sessions)
}

func validSignup() dto.SignupRequest {
	return dto.SignupRequest{
		Registration: validation.Registration{
			MemberID:        "runway01",
			Password:        "fod-check1",
			PasswordConfirm: "fod-check1",
			Name:            "김관제",
			Email:           "ops@careeyes.kr",
			Phone:           "010-1234-5678",
		},
		Company:    "CareEyes",
		Department: "Airside",
	}
}

func login(id, pw string) dto.LoginRequest {
	return dto.LoginRequest{Login: validation.Login{MemberID: id, Password: pw}}
}

func TestSignupAndLogin(t *testing.T) {
	store := newFakeMemberStore()
	h := newMemberHandler(t, store)

	w := do(t, http.MethodPost, "/signup", "/signup", validSignup(), h.Signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored := store.members["runway01"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "fod-check1", stored.PasswordHash)
	assert.Equal(t, models.RoleMember, stored.Role)

	w = do(t, http.MethodPost, "/signup", "/signup", validSignup(), h.Signup)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, http.MethodPost, "/login", "/login", login("runway01", "fod-check1"), h.Login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.LoginResponse](t, w)
	assert.Equal(t, "김관제", resp.MemberName)
	assert.Equal(t, models.RoleMember, resp.MemberRole)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "ce_session=")

	w = do(t, http.MethodPost, "/login", "/login", login("runway01", "wrong-pass1"), h.Login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, http.MethodPost, "/login", "/login", login("nobody99", "fod-check1"), h.Login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, http.MethodPost, "/login", "/login", login(" ", "x"), h.Login)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), validation.ErrLoginIDRequired.Error())

	w = do(t, http.MethodPost, "/login", "/login", login("runway01", ""), h.Login)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), validation.ErrLoginPasswordRequired.Error())
}

func TestSignup_InvalidFields(t *testing.T) {
	h := newMemberHandler(t, newFakeMemberStore())

	req := validSignup()
	req.MemberID = "1abc"
	req.PasswordConfirm = "different1"
	req.Phone = "010-12-5678"

	w := do(t, http.MethodPost, "/signup", "/signup", req, h.Signup)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "memberId")
	assert.Contains(t, body.Fields, "memberPwConfirm")
	assert.Contains(t, body.Fields, "phone")
	assert.NotContains(t, body.Fields, "memberPw")
}

func TestSignup_InvalidEmailAndBlankName(t *testing.T) {
	store := newFakeMemberStore()
	h := newMemberHandler(t, store)

	for _, email := range []string{"@", "a b@", "ops.careeyes.kr"} {
		req := validSignup()
		req.Email = email
		req.Name = "  "

		w := do(t, http.MethodPost, "/signup", "/signup", req, h.Signup)
		require.Equal(t, http.StatusBadRequest, w.Code, email)

		body := decode[struct {
			Fields map[string]string `json:"fields"`
		}](t, w)
		assert.Equal(t, "올바른 이메일 형식이 아닙니다.", body.Fields["email"], email)
		assert.Equal(t, "이름을 입력해주세요.", body.Fields["memberName"])
	}
	assert.Empty(t, store.members)
}

func TestDuplicateAndValidate(t *testing.T) {
	store := newFakeMemberStore()
	store.members["runway01"] = &models.Member{MemberID: "runway01", Email: "ops@careeyes.kr", Phone: "010-1234-5678"}
	h := newMemberHandler(t, store)

	w := do(t, http.MethodPost, "/duplicate", "/duplicate", dto.DuplicateRequest{Email: "ops@careeyes.kr"}, h.Duplicate)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[int](t, w))

	w = do(t, http.MethodPost, "/validate", "/validate", dto.ValidateRequest{MemberID: "12345678", MemberPw: "12345678"}, h.Validate)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.ValidateResponse](t, w)
	assert.False(t, resp.ID.Valid)
	assert.True(t, resp.ID.OnlyDigits)
	assert.False(t, resp.Password.Valid)
	assert.NotEmpty(t, resp.Password.Warning)
	assert.False(t, resp.Match.Match)
	assert.False(t, resp.Phone.Valid)
}

func TestLinkKakao(t *testing.T) {
	store := newFakeMemberStore()
	other := int64(777)
	store.members["runway01"] = &models.Member{MemberID: "runway01", Role: models.RoleMember}
	store.members["runway02"] = &models.Member{MemberID: "runway02", Role: models.RoleMember, KakaoID: &other}
	h := newMemberHandler(t, store)

	token, err := h.sessions.Issue("runway01", models.RoleMember)
	require.NoError(t, err)

	link := func(body any, withCookie bool) int {
		r := gin.New()
		r.POST("/link", h.sessions.RequireSession(), h.LinkKakao)
		req := jsonRequest(t, http.MethodPost, "/link", body)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: "ce_session", Value: token})
		}
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusUnauthorized, link(dto.LinkKakaoRequest{KakaoID: 123}, false))
	assert.Equal(t, http.StatusConflict, link(dto.LinkKakaoRequest{KakaoID: 777}, true))
	assert.Equal(t, http.StatusOK, link(dto.LinkKakaoRequest{KakaoID: 123}, true))
	require.NotNil(t, store.members["runway01"].KakaoID)
	assert.Equal(t, int64(123), *store.members["runway01"].KakaoID)
	assert.Equal(t, http.StatusOK, link(dto.LinkKakaoRequest{KakaoID: 123}, true), "relinking the same account is allowed")
}

func TestWorkerListAndLogout(t *testing.T) {
	store := newFakeMemberStore()
	store.members["admin01"] = &models.Member{MemberID: "admin01", Role: models.RoleAdmin}
	store.members["runway01"] = &models.Member{MemberID: "runway01", Role: models.RoleMember, Name: "김관제", AlertState: 1}
	h := newMemberHandler(t, store)

	w := do(t, http.MethodGet, "/workerlist", "/workerlist", nil, h.WorkerList)
	require.Equal(t, http.StatusOK, w.Code)
	workers := decode[[]dto.WorkerResponse](t, w)
	require.Len(t, workers, 1)
	assert.Equal(t, "runway01", workers[0].MemberID)

	w = do(t, http.MethodPost, "/logout", "/logout", nil, h.Logout)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}
