package errors

import (
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "logo.png", false},
		{"valid density suffix", "logo@2x.png", false},
		{"valid fractional suffix", "logo@2.5x.png", false},
		{"valid no extension", "logo@3x", false},
		{"valid spaces", "my logo@2x.png", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300) + ".png", true},
		{"with path /", "images/logo.png", true},
		{"with path \\", "images\\logo.png", true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"null byte", "logo\x00.png", true},
		{"newline", "logo\n.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateFilename(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateEmitName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"integer ratio", "3f2a9c1d0b7e4a55-2.png", false},
		{"fractional ratio", "3f2a9c1d0b7e4a55-2.5.png", false},
		{"no extension", "3f2a9c1d0b7e4a55-1", false},

		{"empty", "", true},
		{"traversal", "..png", true},
		{"hidden", ".hidden", true},
		{"space", "a b.png", true},
		{"separator", "a/b.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmitName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmitName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAttributeName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"alt", false},
		{"data-id", false},
		{"aria-label", false},
		{"loading", false},

		{"", true},
		{"on click", true},
		{"1abc", true},
		{"a\"b", true},
		{"a=b", true},
	}

	for _, tt := range tests {
		err := ValidateAttributeName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAttributeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
