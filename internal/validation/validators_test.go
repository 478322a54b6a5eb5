package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  Buy milk  ", "Buy milk"},
		{"strips control characters", "Buy\x00 milk\x07", "Buy milk"},
		{"keeps newlines and tabs", "line one\nline\ttwo", "line one\nline\ttwo"},
		{"only control characters", "\x00\x01\x02", ""},
		{"unicode preserved", "задача 日本語", "задача 日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTaskText(t *testing.T) {
	t.Parallel()

	t.Run("valid text passes cleaned", func(t *testing.T) {
		t.Parallel()
		got, err := TaskText("  Call mom  ")
		if err != nil {
			t.Fatalf("TaskText() error = %v", err)
		}
		if got != "Call mom" {
			t.Errorf("TaskText() = %q, want %q", got, "Call mom")
		}
	})

	t.Run("empty after sanitizing fails", func(t *testing.T) {
		t.Parallel()
		_, err := TaskText("   \x00  ")
		if !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("limit is counted in runes", func(t *testing.T) {
		t.Parallel()
		if _, err := TaskText(strings.Repeat("я", MaxTaskTextLength)); err != nil {
			t.Errorf("%d runes must pass, got %v", MaxTaskTextLength, err)
		}
		_, err := TaskText(strings.Repeat("я", MaxTaskTextLength+1))
		if !IsValidationError(err) {
			t.Errorf("expected validation error for overlong text, got %v", err)
		}
	})

	t.Run("error carries a reason", func(t *testing.T) {
		t.Parallel()
		_, err := TaskText("")
		var ve *Error
		if !errors.As(err, &ve) {
			t.Fatalf("error type = %T", err)
		}
		if ve.Field != "text" || ve.Reason == "" {
			t.Errorf("error = %+v", ve)
		}
	})
}

func TestTimezoneName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"valid zone", "Europe/Moscow", "Europe/Moscow", false},
		{"trims whitespace", "  Asia/Tokyo  ", "Asia/Tokyo", false},
		{"unknown zone", "Mars/Olympus", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := TimezoneName(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TimezoneName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TimezoneName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("error is not a validation error: %v", err)
			}
		})
	}
}

func TestIANATimezoneRule(t *testing.T) {
	t.Parallel()

	type cfg struct {
		Zone string `validate:"iana_tz"`
	}

	if err := Validate.Struct(cfg{Zone: "Europe/Berlin"}); err != nil {
		t.Errorf("valid zone rejected: %v", err)
	}
	if err := Validate.Struct(cfg{Zone: "Nowhere/AtAll"}); err == nil {
		t.Error("invalid zone accepted")
	}
}
