// Package validation 包裝 validator/v10，讓 decimal 欄位可以用 tag 驗證
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New 建立已註冊 decimal 規則的 validator
//
// decimal.Decimal 以字串形式交給 validator，自訂 tag dpositive 要求大於 0
func New() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("dpositive", decimalRule(func(d decimal.Decimal) bool { return d.IsPositive() }))
	return v
}

func decimalRule(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d)
	}
}

// FormatValidationError 把 ValidationErrors 轉成可讀的訊息列表
func FormatValidationError(err error) []string {
	var errs []string

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errs
	}
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Sprintf("%s is required", field))
		case "min":
			errs = append(errs, fmt.Sprintf("%s must have minimum length %s", field, e.Param()))
		case "max":
			errs = append(errs, fmt.Sprintf("%s must have maximum length %s", field, e.Param()))
		case "dpositive":
			errs = append(errs, fmt.Sprintf("%s must be greater than 0", field))
		case "oneof":
			errs = append(errs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		default:
			errs = append(errs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return errs
}
