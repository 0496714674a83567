package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validateMaxBytes в отличии от тэга max который проверяет длину рун, - проверят длину байт в поле.
func validateMaxBytes(fl validator.FieldLevel) bool {
	maxBytes, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return len(str) <= maxBytes
}

// validateNotBlank строка не должна состоять только из пробельных символов.
func validateNotBlank(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(str) != ""
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("max_bytes", validateMaxBytes); err != nil {
		return fmt.Errorf("validator registration: %w", err)
	}
	if err := v.RegisterValidation("not_blank", validateNotBlank); err != nil {
		return fmt.Errorf("validator registration: %w", err)
	}
	return nil
}

// validUserID проверяет user_id из пути запроса теми же правилами, что и поле запроса.
func validUserID(userID string) bool {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	return v.Var(userID, "not_blank,max_bytes="+maxUserIDBytesParam) == nil
}
