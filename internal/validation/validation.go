// Package validation は入力値検証の純粋な述語関数を提供する。
package validation

import (
	"regexp"
	"strconv"
)

// ValidReminderMinutes はリマインダー時間として許可される分数の許可リスト。
var ValidReminderMinutes = []int{5, 10, 15}

// emailPattern はメールアドレスの形式チェックに使用する。
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// IsValidEmail はメールアドレスの形式が正しいかを判定する。
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseReminderMinutes は文字列をリマインダー分数として解釈する。
// 整数でない場合、または許可リストに含まれない場合はfalseを返す。
func ParseReminderMinutes(s string) (int, bool) {
	minutes, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	for _, m := range ValidReminderMinutes {
		if minutes == m {
			return minutes, true
		}
	}
	return 0, false
}
