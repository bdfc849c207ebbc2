package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	phoneTag   = "phone_in"
	phoneText  = "invalid phone number, must be 10 digits starting with 6-9"
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)

	bloodTypeTag  = "bloodtype"
	bloodTypeText = "invalid blood type"
	bloodTypes    = map[string]bool{
		"A+": true, "A-": true, "B+": true, "B-": true, "AB+": true, "AB-": true, "O+": true, "O-": true,
	}

	sexTag  = "sex"
	sexText = "must be one of male, female"

	weekdayTag  = "weekday"
	weekdayText = "must be one of Monday, Tuesday, Wednesday, Thursday, Friday, Saturday"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(bloodTypeTag, bloodTypeValidation)
	RegisterCustomTranslation(validate, translator, bloodTypeTag, bloodTypeText)

	_ = validate.RegisterValidation(sexTag, sexValidation)
	RegisterCustomTranslation(validate, translator, sexTag, sexText)

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func bloodTypeValidation(fl validator.FieldLevel) bool {
	return bloodTypes[strings.ToUpper(fl.Field().String())]
}

func sexValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "male", "female":
		return true
	}
	return false
}

// weekdayValidation accepts the school days, Sunday excluded.
func weekdayValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday":
		return true
	}
	return false
}

// IsValidPhone reports whether phone is a 10 digits number starting with 6-9.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}
