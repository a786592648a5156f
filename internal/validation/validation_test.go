package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test@example.com", true},
		{"user.name+potato@gmail.com", true},
		{"coooooolllbro", false},
		{"@potato.com", false},
		{"user@.com", false},
		{"user@com", false},
		{"taro yamada@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestParseReminderMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantOK  bool
	}{
		{"5", 5, true},
		{"10", 10, true},
		{"15", 15, true},
		{"0", 0, false},
		{"7", 0, false},
		{"20", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseReminderMinutes(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseReminderMinutes(%q) = (%d, %v), want (%d, %v)",
				tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
