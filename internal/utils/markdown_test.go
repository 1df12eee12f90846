package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("hello **world**")
	assert.Contains(t, html, "<strong>world</strong>")
}

func TestRenderMarkdownSanitizesHTML(t *testing.T) {
	html := RenderMarkdown(`hi <script>alert("x")</script>`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "hi")
}
