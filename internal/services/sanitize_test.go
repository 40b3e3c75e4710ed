package services

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Groceries", "Groceries"},
		{"ampersand kept", "Food & Drink", "Food & Drink"},
		{"apostrophe kept", "Bob's rent", "Bob's rent"},
		{"tags stripped", "<b>Rent</b>", "Rent"},
		{"script stripped", "<script>alert(1)</script>Rent", "Rent"},
		{"entity-encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;", ""},
		{"entity-encoded tag", "&lt;b&gt;Rent&lt;/b&gt;", "Rent"},
		{"double-encoded tag", "&amp;lt;b&amp;gt;Rent&amp;lt;/b&amp;gt;", "Rent"},
		{"control chars dropped", "Rent\a\t", "Rent"},
		{"trimmed", "  Rent  ", "Rent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeText(tt.in); got != tt.want {
				t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeTextNeverReturnsTags(t *testing.T) {
	inputs := []string{
		"&lt;img src=x onerror=alert(1)&gt;",
		"&amp;amp;amp;amp;amp;lt;script&amp;amp;amp;amp;amp;gt;",
		"<<script>script>alert(1)<</script>/script>",
	}
	for _, in := range inputs {
		got := sanitizeText(in)
		if strings.Contains(got, "<script") || strings.Contains(got, "<img") {
			t.Errorf("sanitizeText(%q) = %q, contains live markup", in, got)
		}
	}
}
