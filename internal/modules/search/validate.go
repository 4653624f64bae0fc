package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const validationMessage = "Please enter both pickup and drop-off locations."

var paramsValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

func validateParams(p SearchParams) error {
	if err := paramsValidator.Struct(p); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			names := make([]string, 0, len(fields))
			for _, f := range fields {
				names = append(names, strings.ToLower(f.Field()))
			}
			return fmt.Errorf("%w: %s (missing %s)", ErrValidation, validationMessage, strings.Join(names, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// normalizeParams trims the locations and clamps seats into [MinSeats, MaxSeats].
func normalizeParams(p SearchParams) SearchParams {
	return SearchParams{
		Pickup:  strings.TrimSpace(p.Pickup),
		Dropoff: strings.TrimSpace(p.Dropoff),
		Seats:   clampSeats(p.Seats),
	}
}
