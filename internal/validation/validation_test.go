package validation

import "testing"

func TestIsValidTargetLink(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://instagram.com/someuser", true},
		{"https://www.instagram.com/someuser", true},
		{"http://tiktok.com/@clip", true},
		{"https://youtube.com", true},
		{"@some_user.name", true},
		{"", false},
		{"someuser", false},
		{"https://example.com/profile", false},
		{"ftp://instagram.com/someuser", false},
		{"@bad user", false},
	}

	for _, tt := range tests {
		if got := IsValidTargetLink(tt.link); got != tt.want {
			t.Fatalf("IsValidTargetLink(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"01012345678", true},
		{"01198765432", true},
		{"01255554444", true},
		{"01500001111", true},
		{"01312345678", false}, // неизвестный префикс
		{"0101234567", false},  // короткий
		{"010123456789", false},
		{"+201012345678", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidPhoneNumber(tt.phone); got != tt.want {
			t.Fatalf("IsValidPhoneNumber(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("user@example.com") {
		t.Fatalf("valid email rejected")
	}
	for _, bad := range []string{"", "user", "user@", "user@host", "@example.com"} {
		if IsValidEmail(bad) {
			t.Fatalf("IsValidEmail(%q) = true, want false", bad)
		}
	}
}

func TestIsValidLogin(t *testing.T) {
	tests := []struct {
		login string
		want  bool
	}{
		{"user_01", true},
		{"abc", true},
		{"ab", false},
		{"user name", false},
		{"user-name", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidLogin(tt.login); got != tt.want {
			t.Fatalf("IsValidLogin(%q) = %v, want %v", tt.login, got, tt.want)
		}
	}
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Password1", true},
		{"password1", false}, // нет заглавной
		{"PASSWORD1", false}, // нет строчной
		{"Passwords", false}, // нет цифры
		{"Pa1", false},       // короткий
	}

	for _, tt := range tests {
		if got := IsValidPassword(tt.password); got != tt.want {
			t.Fatalf("IsValidPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
