package httpx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookscan/internal/isbn"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("book_code", validateBookCode)
}

// book_code accepts anything isbn.Normalize accepts: ISBN-13, ISBN-10 or UPC-A.
func validateBookCode(fl validator.FieldLevel) bool {
	_, err := isbn.Normalize(fl.Field().String())
	return err == nil
}

// ValidateStruct returns one ErrorDetail per failed field, or nil.
func ValidateStruct(s any) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	out := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "book_code":
			message = fmt.Sprintf("%s must be an ISBN-13, ISBN-10 or 12-digit UPC", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s items", field, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		out = append(out, ErrorDetail{
			Field:   strings.ToLower(field[:1]) + field[1:],
			Message: message,
		})
	}
	return out
}
