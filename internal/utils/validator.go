package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// DateLayout 出生日期格式
const DateLayout = "2006-01-02"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9[:punct:]]+$`)
	letterPattern   = regexp.MustCompile(`[a-zA-Z]`)
	numberPattern   = regexp.MustCompile(`[0-9]`)
)

// ValidateUsername checks if the username meets the requirements.
func ValidateUsername(username string) (bool, string) {
	if len(username) < 3 || len(username) > 32 {
		return false, "用户名长度必须在3到32位之间"
	}

	// 允许英文大小写、数字和下划线
	if !usernamePattern.MatchString(username) {
		return false, "用户名只能包含英文大小写、数字和下划线"
	}

	// 不能是纯数字
	if digitsPattern.MatchString(username) {
		return false, "用户名不能为纯数字"
	}

	return true, ""
}

// ValidatePassword checks if the password meets the requirements.
// Returns true if valid, otherwise false and an error message.
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "密码最少8位"
	}
	if len(password) > 72 {
		// bcrypt 只使用前 72 字节
		return false, "密码最多72位"
	}

	if !passwordPattern.MatchString(password) {
		return false, "密码只能包含英文大小写、数字和符号"
	}

	if !letterPattern.MatchString(password) || !numberPattern.MatchString(password) {
		return false, "密码必须包含至少一个字母和一个数字"
	}

	return true, ""
}

func ValidateEmail(email string) (bool, string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, "邮箱不能为空"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false, "邮箱格式错误"
	}
	return true, ""
}

// ParseDateOfBirth 解析 YYYY-MM-DD 格式的出生日期，不接受未来日期
func ParseDateOfBirth(raw string, now time.Time) (time.Time, bool, string) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false, "出生日期格式必须为 YYYY-MM-DD"
	}
	if d.After(now) {
		return time.Time{}, false, "出生日期不能晚于今天"
	}
	return d, true, ""
}
