package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

var (
	phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{9,14}$`)
	seatPattern  = regexp.MustCompile(`^[A-Z]?[0-9]{1,3}[A-Z]?$`)
)

// Validate is shared by services; custom tags are registered in init
var Validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	must(Validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
	}))
	must(Validate.RegisterValidation("seat", func(fl validator.FieldLevel) bool {
		return seatPattern.MatchString(strings.ToUpper(fl.Field().String()))
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// NormalizePhone strips separators and assumes +91 for bare 10-digit numbers
func NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	switch {
	case len(cleaned) == 10 && !strings.HasPrefix(cleaned, "+"):
		return "+91" + cleaned
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "91"):
		return "+" + cleaned
	}
	return cleaned
}

// Struct validates tagged request structs and reports the first failing field
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fe.Field(), describe(fe))
	}
	return apperrors.NewValidationError("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a valid mobile number"
	case "seat":
		return "must be a seat label like 12 or A3"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt", "gte", "lt", "lte", "min", "max", "len":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	case "gtfield", "ltefield":
		return fmt.Sprintf("failed %s %s", fe.Tag(), fe.Param())
	default:
		return "is invalid"
	}
}

// CreateBooking checks the cross-field rules of a booking request and
// normalizes seat labels and the contact phone in place
func CreateBooking(req *models.CreateBookingRequest) error {
	if err := Struct(req); err != nil {
		return err
	}
	if len(req.Seats) != req.PassengerCount {
		return apperrors.NewValidationError("seats", fmt.Sprintf("expected %d seats, got %d", req.PassengerCount, len(req.Seats)))
	}

	seen := make(map[string]struct{}, len(req.Seats))
	for i, seat := range req.Seats {
		seat = strings.ToUpper(strings.TrimSpace(seat))
		if _, dup := seen[seat]; dup {
			return apperrors.NewValidationError("seats", "duplicate seat "+seat)
		}
		seen[seat] = struct{}{}
		req.Seats[i] = seat
	}

	req.ContactPhone = NormalizePhone(req.ContactPhone)
	return nil
}
