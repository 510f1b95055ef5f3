// Package imagery turns a sub-lesson's visual description into a link to a
// public text-to-image endpoint. No key is needed and nothing is fetched.
package imagery

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the public rendering endpoint.
const DefaultBaseURL = "https://image.pollinations.ai/prompt/"

// maxPromptLen keeps generated links a manageable length.
const maxPromptLen = 400

// Builder builds image URLs.
type Builder struct {
	BaseURL string
	Width   int
	Height  int
}

// Default renders 800x400 images from DefaultBaseURL.
var Default = Builder{BaseURL: DefaultBaseURL, Width: 800, Height: 400}

// URL builds a link with Default. It returns "" for an empty description.
func URL(visualDescription string) string {
	return Default.URL(visualDescription)
}

// URL returns the image link for visualDescription, or "" when there is
// nothing to draw.
func (b Builder) URL(visualDescription string) string {
	prompt := strings.Join(strings.Fields(visualDescription), " ")
	if prompt == "" {
		return ""
	}
	if r := []rune(prompt); len(r) > maxPromptLen {
		prompt = string(r[:maxPromptLen])
	}

	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	q := url.Values{}
	if b.Width > 0 {
		q.Set("width", strconv.Itoa(b.Width))
	}
	if b.Height > 0 {
		q.Set("height", strconv.Itoa(b.Height))
	}
	q.Set("nologo", "true")

	return base + url.PathEscape(prompt) + "?" + q.Encode()
}

// Placeholder is the text shown in place of the image.
func Placeholder(visualDescription string) string {
	d := strings.Join(strings.Fields(visualDescription), " ")
	if d == "" {
		return "[no illustration]"
	}
	return "[illustration: " + d + "]"
}
