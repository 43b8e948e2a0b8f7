package rules

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestRequiredText(t *testing.T) {
	t.Parallel()

	blank := ""
	long := strings.Repeat("あ", MaxNameLength+1)
	ok := strings.Repeat("a", MaxNameLength)

	tests := []struct {
		name  string
		value *string
		want  string
	}{
		{"missing", nil, MsgRequired},
		{"blank", &blank, MsgBlank},
		{"too long", &long, "Ensure this field has no more than 100 characters."},
		{"max length", &ok, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validation.Validate(tt.value, RequiredText(MaxNameLength)...)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTrimmed(t *testing.T) {
	t.Parallel()

	if Trimmed(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
	raw := "  Anan  "
	if got := Trimmed(&raw); *got != "Anan" || raw != "  Anan  " {
		t.Fatalf("unexpected trim result %q (source %q)", *got, raw)
	}
}
