package global

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// monthKeyRegex kiểm tra tên partition dạng YYYY-MM
var monthKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	// Khởi tạo validator
	Validate = validator.New()

	// Đăng ký các custom validator
	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("consult_status", validateConsultStatus)
	_ = Validate.RegisterValidation("month_key", validateMonthKey)
}

// validateNoXSS kiểm tra XSS
func validateNoXSS(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"eval(",
		"document.cookie",
		"document.write",
		"<iframe",
		"<object",
		"<embed",
	}

	value = strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateConsultStatus kiểm tra status thuộc enum tư vấn.
// needs_admin hợp lệ ở tầng ứng dụng dù không nằm trong validation rule của sheet.
func validateConsultStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // optional, dùng kèm omitempty
	}
	switch value {
	case "consulting", "quote_given", "confirmed", "paid", "completed", "cancelled", "needs_admin":
		return true
	}
	return false
}

// validateMonthKey kiểm tra tên partition dạng YYYY-MM
func validateMonthKey(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return monthKeyRegex.MatchString(value)
}
