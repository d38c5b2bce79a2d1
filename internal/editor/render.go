// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editor

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// inlinePolicy keeps the inline markup the editor emits (bold, italic,
// links, code) and strips everything else before text is marked safe.
var inlinePolicy = bluemonday.UGCPolicy()

type headerData struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type paragraphData struct {
	Text string `json:"text"`
}

type listData struct {
	Style string          `json:"style"`
	Items json.RawMessage `json:"items"`
}

// listItem covers both item shapes the editor has produced over time:
// a bare string or an object with a content field.
type listItem struct {
	Content string `json:"content"`
}

type quoteData struct {
	Text    string `json:"text"`
	Caption string `json:"caption"`
}

type codeData struct {
	Code string `json:"code"`
}

type imageData struct {
	File struct {
		URL string `json:"url"`
	} `json:"file"`
	Caption string `json:"caption"`
}

// RenderHTML renders a block document to markup. Every block produces
// output: unknown types and malformed data render explicit placeholders so
// no content is invisibly lost.
func RenderHTML(doc Document) template.HTML {
	var b strings.Builder
	for _, block := range doc.Blocks {
		renderBlock(&b, block)
	}
	return template.HTML(b.String())
}

func renderBlock(b *strings.Builder, block Block) {
	switch block.Type {
	case "header":
		var data headerData
		if err := json.Unmarshal(block.Data, &data); err != nil {
			writePlaceholder(b, "Invalid header format")
			return
		}
		level := data.Level
		if level < 1 || level > 6 {
			level = 2
		}
		fmt.Fprintf(b, "<h%d>%s</h%d>\n", level, sanitize(data.Text), level)

	case "paragraph":
		var data paragraphData
		if err := json.Unmarshal(block.Data, &data); err != nil {
			writePlaceholder(b, "Invalid paragraph format")
			return
		}
		fmt.Fprintf(b, "<p>%s</p>\n", sanitize(data.Text))

	case "list":
		renderList(b, block)

	case "quote":
		var data quoteData
		if err := json.Unmarshal(block.Data, &data); err != nil {
			writePlaceholder(b, "Invalid quote format")
			return
		}
		fmt.Fprintf(b, "<blockquote><p>%s</p>", sanitize(data.Text))
		if data.Caption != "" {
			fmt.Fprintf(b, "<cite>%s</cite>", sanitize(data.Caption))
		}
		b.WriteString("</blockquote>\n")

	case "code":
		var data codeData
		if err := json.Unmarshal(block.Data, &data); err != nil {
			writePlaceholder(b, "Invalid code format")
			return
		}
		// Code is shown literally, markup and all.
		fmt.Fprintf(b, "<pre><code>%s</code></pre>\n", template.HTMLEscapeString(data.Code))

	case "image":
		var data imageData
		if err := json.Unmarshal(block.Data, &data); err != nil || data.File.URL == "" {
			writePlaceholder(b, "Invalid image format")
			return
		}
		fmt.Fprintf(b, "<figure><img src=%q alt=%q>", sanitizeURL(data.File.URL), sanitize(data.Caption))
		if data.Caption != "" {
			fmt.Fprintf(b, "<figcaption>%s</figcaption>", sanitize(data.Caption))
		}
		b.WriteString("</figure>\n")

	default:
		writePlaceholder(b, "Unsupported block type: "+block.Type)
	}
}

func renderList(b *strings.Builder, block Block) {
	var data listData
	if err := json.Unmarshal(block.Data, &data); err != nil {
		writePlaceholder(b, "Invalid list format")
		return
	}

	// Items must be array-shaped; anything else is an explicit placeholder,
	// never a silent drop.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data.Items, &rawItems); err != nil {
		writePlaceholder(b, "Invalid list format")
		return
	}

	// Numbered is the default; only an explicit "unordered" style bullets.
	tag := "ol"
	if data.Style == "unordered" {
		tag = "ul"
	}
	fmt.Fprintf(b, "<%s>\n", tag)
	for _, raw := range rawItems {
		b.WriteString("<li>")
		b.WriteString(sanitize(listItemText(raw)))
		b.WriteString("</li>\n")
	}
	fmt.Fprintf(b, "</%s>\n", tag)
}

func listItemText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var item listItem
	if err := json.Unmarshal(raw, &item); err == nil && item.Content != "" {
		return item.Content
	}
	return "Empty item"
}

func writePlaceholder(b *strings.Builder, text string) {
	fmt.Fprintf(b, "<p class=\"block-placeholder\">%s</p>\n", template.HTMLEscapeString(text))
}

func sanitize(s string) string {
	return inlinePolicy.Sanitize(s)
}

// sanitizeURL permits http, https, and relative image sources only.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http", "https", "":
		return u.String()
	default:
		return ""
	}
}
