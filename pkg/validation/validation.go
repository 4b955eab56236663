// Package validation 基于 validator/v10 的请求校验，字段错误转换为业务错误码
package validation

import (
	stderrors "errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"TripMate/pkg/errors"
	"TripMate/utils"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// clock 校验 HH:MM
var clock validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && utils.IsValidClock(s)
}

// isodate 校验 YYYY-MM-DD
var isodate validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := utils.ParseDate(s)
	return err == nil
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("clock", clock)
		_ = validate.RegisterValidation("isodate", isodate)
	})
	return validate
}

// fieldErrors 字段到错误码的映射，未列出的字段统一为 VALIDATION_FAILED
var fieldErrors = map[string]errors.Definition{
	"Title":     errors.TitleRequired,
	"Day":       errors.DayRequired,
	"Time":      errors.InvalidTime,
	"StartDate": errors.InvalidDateRange,
	"EndDate":   errors.InvalidDateRange,
}

// Struct 校验结构体，返回第一个字段错误对应的 Definition
func Struct(v interface{}) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.ValidationFailed.WithMessage("%s", err.Error())
	}

	fe := fieldErrs[0]
	if def, ok := fieldErrors[fe.StructField()]; ok {
		return def
	}
	return errors.ValidationFailed.WithMessage("%s failed on %s", fe.Field(), fe.Tag())
}
