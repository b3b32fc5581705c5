package spiel

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate  *validator.Validate
	titelExpr = regexp.MustCompile(`^\w`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("isbn_checksum", validateISBN)
	validate.RegisterValidation("titel", validateTitel)
	validate.RegisterValidation("rating", validateRating)
}

func validateRating(fl validator.FieldLevel) bool {
	r := fl.Field().Int()
	return r >= 0 && r <= MaxRating
}

func validateTitel(fl validator.FieldLevel) bool {
	return titelExpr.MatchString(fl.Field().String())
}

func validateISBN(fl validator.FieldLevel) bool {
	return IsValidISBN(fl.Field().String())
}

// IsValidISBN checks the ISBN-10 or ISBN-13 checksum. Hyphens and spaces are ignored.
func IsValidISBN(isbn string) bool {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")

	switch len(isbn) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			c := isbn[i]
			var d int
			switch {
			case c >= '0' && c <= '9':
				d = int(c - '0')
			case i == 9 && (c == 'X' || c == 'x'):
				d = 10
			default:
				return false
			}
			sum += (10 - i) * d
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i := 0; i < 13; i++ {
			c := isbn[i]
			if c < '0' || c > '9' {
				return false
			}
			d := int(c - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		return sum%10 == 0
	default:
		return false
	}
}

// Validate checks the field constraints of s. It returns nil when s is valid,
// otherwise one message per violated field. isNew is true on the create path;
// on update the id must be a UUID.
func Validate(s *Spiel, isNew bool) map[string]string {
	errs := make(map[string]string)

	if !isNew {
		if err := validate.Var(s.ID, "required,uuid"); err != nil {
			errs["id"] = "id must be a valid UUID"
		}
	}

	if err := validate.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs["spiel"] = err.Error()
		}
		for _, fe := range verrs {
			field := fe.Field()
			if _, seen := errs[field]; seen {
				continue
			}
			errs[field] = messageFor(fe, s)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func messageFor(fe validator.FieldError, s *Spiel) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "titel":
		return "titel must start with a letter, a digit or _"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "rating":
		return fmt.Sprintf("%v is not a valid rating (0..%d)", fe.Value(), MaxRating)
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "isbn_checksum":
		return fmt.Sprintf("%s is not a valid ISBN", s.ISBN)
	case "url":
		return fmt.Sprintf("%s is not a valid URL", s.Homepage)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
