package imagery

import (
	"net/url"
	"strings"
	"testing"
)

func TestURL(t *testing.T) {
	got := URL("A wave  splitting\nthrough two slits")

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse %q: %v", got, err)
	}
	if u.Host != "image.pollinations.ai" {
		t.Errorf("host = %q", u.Host)
	}
	if u.Path != "/prompt/A wave splitting through two slits" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	if q.Get("width") != "800" || q.Get("height") != "400" || q.Get("nologo") != "true" {
		t.Errorf("query = %v", q)
	}
}

func TestURL_EscapesSlashes(t *testing.T) {
	got := URL("input/output diagram?")
	if strings.Contains(strings.TrimPrefix(got, DefaultBaseURL), "/") {
		t.Errorf("prompt not escaped: %q", got)
	}
}

func TestURL_Empty(t *testing.T) {
	if got := URL("   "); got != "" {
		t.Errorf("URL(blank) = %q", got)
	}
}

func TestURL_Truncates(t *testing.T) {
	u, err := url.Parse(URL(strings.Repeat("x", 1000)))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.TrimPrefix(u.Path, "/prompt/")); n != maxPromptLen {
		t.Errorf("prompt length = %d", n)
	}
}

func TestBuilder_CustomBase(t *testing.T) {
	b := Builder{BaseURL: "http://localhost:9000/render"}
	got := b.URL("atom")
	if got != "http://localhost:9000/render/atom?nologo=true" {
		t.Errorf("URL = %q", got)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder(""); got != "[no illustration]" {
		t.Errorf("got %q", got)
	}
	if got := Placeholder("a cat"); got != "[illustration: a cat]" {
		t.Errorf("got %q", got)
	}
}
