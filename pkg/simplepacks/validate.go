package simplepacks

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	v.RegisterValidation("filename", validFilename)
	return v
}

// validFilename accepts a single path element
func validFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// ValidateRequest checks that req names a pack and carries all six assets.
// Field names in the returned *ValidationError follow the multipart field
// names, e.g. "sound_idle.data".
func ValidateRequest(req *PackCreateRequest) error {
	var fields []string

	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, "name")
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Msg: err.Error()}
		}
		for _, fe := range verrs {
			field := fe.Namespace()
			if idx := strings.IndexByte(field, '.'); idx >= 0 {
				field = field[idx+1:]
			}
			if field == "name" && contains(fields, "name") {
				continue
			}
			fields = append(fields, field)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
