// Package validation holds the member registration and login form rules.
// Messages are the operator-facing Korean strings shown next to each field.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	idStart       = regexp.MustCompile(`^[a-zA-Z]`)
	alphanumeric  = regexp.MustCompile(`^[a-zA-Z0-9]*$`)
	digitsOnly    = regexp.MustCompile(`^\d+$`)
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit      = regexp.MustCompile(`[0-9]`)
	hasSpecial    = regexp.MustCompile(`[!@#$%^&*()]`)
	phonePartsLen = [3]int{3, 4, 4}
)

// IDResult is the outcome of the member id policy.
type IDResult struct {
	Valid      bool   `json:"valid"`
	Message    string `json:"message"`
	OnlyDigits bool   `json:"onlyDigits"`
}

// ValidateID checks length 6..20, a leading letter and letters/digits only.
// When several rules fail, the last failing rule supplies the message.
func ValidateID(id string) IDResult {
	res := IDResult{Valid: true}

	if len(id) < 6 || len(id) > 20 {
		res.Valid = false
		res.Message = "아이디는 6자 이상 20자 이하여야 합니다."
	}
	if !idStart.MatchString(id) {
		res.Valid = false
		res.Message = "아이디는 영문자로 시작해야 합니다."
	}
	if !alphanumeric.MatchString(id) {
		res.Valid = false
		res.Message = "아이디는 영문자, 숫자만 사용할 수 있습니다."
	}
	if digitsOnly.MatchString(id) {
		res.OnlyDigits = true
	}

	switch {
	case res.Valid:
		res.Message = "사용 가능한 아이디입니다."
	case res.Message == "":
		res.Message = "올바르지 않은 아이디 형식입니다."
	}
	return res
}

// PasswordFeedback lists which character classes a password contains.
type PasswordFeedback struct {
	Length      bool `json:"length"`
	Letter      bool `json:"english"`
	Digit       bool `json:"number"`
	Special     bool `json:"special"`
	MinTwoTypes bool `json:"minTwoTypes"`
}

// PasswordResult is the outcome of the password policy.
type PasswordResult struct {
	Valid      bool             `json:"valid"`
	Feedback   PasswordFeedback `json:"feedback"`
	Message    string           `json:"message"`
	Warning    string           `json:"warning,omitempty"`
	OnlyDigits bool             `json:"onlyDigits"`
}

// ValidatePassword requires at least 8 characters drawn from at least two of
// letters, digits and !@#$%^&*().
func ValidatePassword(pw string) PasswordResult {
	fb := PasswordFeedback{
		Length:  len(pw) >= 8,
		Letter:  hasLetter.MatchString(pw),
		Digit:   hasDigit.MatchString(pw),
		Special: hasSpecial.MatchString(pw),
	}
	types := 0
	for _, ok := range []bool{fb.Letter, fb.Digit, fb.Special} {
		if ok {
			types++
		}
	}
	fb.MinTwoTypes = types >= 2

	res := PasswordResult{Valid: true, Feedback: fb}
	if !fb.Length {
		res.Valid = false
		res.Message = "비밀번호는 8자 이상이어야 합니다."
	}
	if !fb.MinTwoTypes {
		res.Valid = false
		res.Message = "비밀번호는 영문자, 숫자, 특수문자 중 2종류 이상을 조합해야 합니다."
	}
	if digitsOnly.MatchString(pw) {
		res.OnlyDigits = true
		res.Warning = "비밀번호는 숫자만으로 구성하는 것을 권장하지 않습니다."
	}
	if res.Valid {
		res.Message = "사용 가능한 비밀번호입니다."
	}
	return res
}

// MatchResult is the outcome of the password confirmation check.
type MatchResult struct {
	Match   bool   `json:"match"`
	Message string `json:"message"`
}

func ValidatePasswordMatch(pw, confirm string) MatchResult {
	if pw != "" && pw == confirm {
		return MatchResult{Match: true, Message: "비밀번호가 일치합니다."}
	}
	return MatchResult{Match: false, Message: "비밀번호가 일치하지 않습니다."}
}

// PhoneResult is the outcome of the phone number check.
type PhoneResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ValidatePhone checks the three parts of a 3-4-4 digit phone number.
func ValidatePhone(p1, p2, p3 string) PhoneResult {
	parts := [3]string{p1, p2, p3}
	for _, p := range parts {
		if p == "" {
			return PhoneResult{Message: "전화번호를 모두 입력해주세요."}
		}
	}
	for i, p := range parts {
		if len(p) != phonePartsLen[i] || !digitsOnly.MatchString(p) {
			return PhoneResult{Message: "올바른 전화번호 형식이 아닙니다 (예: 010-1234-5678)."}
		}
	}
	return PhoneResult{Valid: true, Message: "올바른 전화번호 형식입니다."}
}

// SplitPhone splits "010-1234-5678" into its parts. Missing parts are empty.
func SplitPhone(phone string) (string, string, string) {
	parts := strings.SplitN(phone, "-", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// Registration is the signup form.
type Registration struct {
	MemberID        string `json:"memberId" binding:"required,min=6,max=20,memberid"`
	Password        string `json:"memberPw" binding:"required,min=8,pwmix"`
	PasswordConfirm string `json:"memberPwConfirm" binding:"required,eqfield=Password"`
	Name            string `json:"memberName" binding:"required,notblank"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone" binding:"required,phone"`
}

// Validate returns a message per failing field, or nil when the form is acceptable.
func (r Registration) Validate() map[string]string {
	return FieldErrors(Engine().Struct(r))
}

// FieldErrors maps binding errors to the form's field messages. It returns nil
// when err carries no field errors.
func FieldErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

var requiredMessages = map[string]string{
	"memberId":        "아이디를 입력해주세요.",
	"memberPw":        "비밀번호를 입력해주세요.",
	"memberPwConfirm": "비밀번호 확인을 입력해주세요.",
	"memberName":      "이름을 입력해주세요.",
	"email":           "이메일을 입력해주세요.",
	"phone":           "전화번호를 모두 입력해주세요.",
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" || fe.Tag() == "notblank" {
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
	}
	value, _ := fe.Value().(string)
	switch fe.Field() {
	case "memberId":
		return ValidateID(value).Message
	case "memberPw":
		return ValidatePassword(value).Message
	case "memberPwConfirm":
		return ValidatePasswordMatch("", "").Message
	case "phone":
		return ValidatePhone(SplitPhone(value)).Message
	case "email":
		return "올바른 이메일 형식이 아닙니다."
	}
	return fe.Error()
}

// Login is the login form.
type Login struct {
	MemberID string `json:"memberId" binding:"required,notblank"`
	Password string `json:"memberPw" binding:"required,notblank"`
}

var (
	ErrLoginIDRequired       = errors.New("아이디를 입력해주세요.")
	ErrLoginPasswordRequired = errors.New("비밀번호를 입력해주세요.")
)

// ValidateLogin rejects blank login fields.
func ValidateLogin(id, pw string) error {
	return LoginError(Engine().Struct(Login{MemberID: id, Password: pw}))
}

// LoginError maps login binding errors to the form's messages. Errors that are
// not field errors are returned unchanged.
func LoginError(err error) error {
	fields := FieldErrors(err)
	switch {
	case fields == nil:
		return err
	case fields["memberId"] != "":
		return ErrLoginIDRequired
	default:
		return ErrLoginPasswordRequired
	}
}
