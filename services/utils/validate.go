package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var txHashRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("tx-hash", func(fl validator.FieldLevel) bool {
		return txHashRegexp.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}
