// Package htmlsanitize cleans caller-supplied HTML before it is emailed or
// rendered.
//
// The policy is bluemonday's UGC policy widened for email markup: table
// layout attributes and a fixed set of inline CSS properties survive, while
// scripts, event handlers, iframes and javascript: URLs are removed.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func emailPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowURLSchemes("mailto", "http", "https", "tel")
		p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "center", "span", "div")
		p.AllowAttrs("colspan", "rowspan", "align", "valign", "width", "height",
			"cellpadding", "cellspacing", "border", "bgcolor", "role").Globally()
		p.AllowAttrs("class").Globally()
		p.AllowStyles(
			"color", "background-color", "background",
			"font-family", "font-size", "font-weight", "font-style", "line-height",
			"text-align", "text-decoration", "vertical-align",
			"margin", "margin-top", "margin-bottom", "margin-left", "margin-right",
			"padding", "padding-top", "padding-bottom", "padding-left", "padding-right",
			"border", "border-left", "border-radius", "border-bottom", "border-top",
			"width", "max-width", "display",
		).Globally()
		policy = p
	})
	return policy
}

// Sanitize returns s with unsafe markup removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return emailPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
