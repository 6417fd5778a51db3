package markup

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	r := New()
	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "emphasis",
			src:  "a *b* **c**",
			want: []string{"<em>b</em>", "<strong>c</strong>"},
		},
		{
			name:    "script is dropped",
			src:     "hi <script>alert(1)</script>",
			notWant: []string{"<script", "alert(1)</script>"},
		},
		{
			name:    "javascript links are dropped",
			src:     "[x](javascript:alert(1))",
			notWant: []string{"javascript:"},
		},
		{
			name: "autolinks are nofollow",
			src:  "see https://example.com",
			want: []string{`href="https://example.com"`, `rel="nofollow`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(r.Render(tt.src))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, missing %q", tt.src, got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, contains %q", tt.src, got, w)
				}
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	r := New()
	if got := r.Excerpt("**short**", 20); got != "short" {
		t.Errorf("Excerpt() = %q, want short", got)
	}
	if got := r.Excerpt("one two three four", 7); got != "one two…" {
		t.Errorf("Excerpt() = %q, want %q", got, "one two…")
	}
}
