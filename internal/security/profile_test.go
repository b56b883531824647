package security

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestProfileSanitizer_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"プレーンテキスト", "Alice Smith", "Alice Smith"},
		{"日本語", "山田 太郎", "山田 太郎"},
		{"scriptタグ", `<script>alert(1)</script>Bob`, "Bob"},
		{"imgタグ", `<img src=x onerror=alert(1)>Carol`, "Carol"},
		{"太字", "<b>Dave</b>", "Dave"},
		{"アンパサンド", "Tom & Jerry", "Tom & Jerry"},
		{"実体参照のscriptタグ", "&lt;script&gt;alert(1)&lt;/script&gt;Mallory", "Mallory"},
		{"二重エンコードのscriptタグ", "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;Mallory", "Mallory"},
		{"実体参照のimgタグ", "&lt;img src=x onerror=alert(1)&gt;Trent", "Trent"},
		{"実体参照のアンパサンド", "Tom &amp; Jerry", "Tom & Jerry"},
		{"連続空白", "  Eve \n\t Adams  ", "Eve Adams"},
		{"空", "", ""},
	}

	s := NewProfileSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.DisplayName(tt.in); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProfileSanitizer_DisplayName_NoAngleBrackets(t *testing.T) {
	inputs := []string{
		"&lt;b&gt;Mallory&lt;/b&gt;",
		"&#60;svg onload=alert(1)&#62;",
		"&#x3c;iframe src=x&#x3e;",
		"&amp;amp;lt;script&amp;amp;gt;",
		"1 < 2 > 0",
		"<<script>>Oscar",
	}

	s := NewProfileSanitizer()
	for _, in := range inputs {
		got := s.DisplayName(in)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("DisplayName(%q) = %q, must not contain angle brackets", in, got)
		}
	}
}

func TestProfileSanitizer_DisplayName_Truncates(t *testing.T) {
	got := NewProfileSanitizer().DisplayName(strings.Repeat("あ", 150))
	if n := utf8.RuneCountInString(got); n != maxDisplayNameRunes {
		t.Errorf("rune count = %d, want %d", n, maxDisplayNameRunes)
	}
}

func TestProfileSanitizer_PictureURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://lh3.googleusercontent.com/a/photo.jpg", "https://lh3.googleusercontent.com/a/photo.jpg"},
		{"http://example.com/a.png", ""},
		{"javascript:alert(1)", ""},
		{"data:image/png;base64,AAAA", ""},
		{"/relative.png", ""},
		{"", ""},
	}

	s := NewProfileSanitizer()
	for _, tt := range tests {
		if got := s.PictureURL(tt.in); got != tt.want {
			t.Errorf("PictureURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
