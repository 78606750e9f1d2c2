package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// Engine returns gin's binding validator with the member form rules
// registered. Requests bound with ShouldBind and the forms in this package are
// checked by the same instance.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New(validator.WithRequiredStructEnabled())
			v.SetTagName("binding")
		}
		v.RegisterTagNameFunc(jsonName)
		for tag, fn := range map[string]validator.Func{
			"memberid": memberIDRule,
			"pwmix":    passwordMixRule,
			"phone":    phoneRule,
			"notblank": notBlankRule,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic("register validation " + tag + ": " + err.Error())
			}
		}
		engine = v
	})
	return engine
}

// jsonName reports fields by their JSON key so error maps line up with the
// form field names.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// memberIDRule: leading letter, letters and digits only. Length is left to
// min/max tags.
func memberIDRule(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return idStart.MatchString(s) && alphanumeric.MatchString(s)
}

func passwordMixRule(fl validator.FieldLevel) bool {
	return charClasses(fl.Field().String()) >= 2
}

func phoneRule(fl validator.FieldLevel) bool {
	return ValidatePhone(SplitPhone(fl.Field().String())).Valid
}

func notBlankRule(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// charClasses counts how many of letters, digits and !@#$%^&*() appear in s.
func charClasses(s string) int {
	n := 0
	for _, re := range []*regexp.Regexp{hasLetter, hasDigit, hasSpecial} {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}
