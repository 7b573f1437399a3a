// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdownSuffix marks fields whose value is authored as Markdown. The public
// read path renders each such field into a sibling field with the "Html"
// suffix; the Markdown source is kept so authoring round-trips are lossless.
const (
	markdownSuffix = "Markdown"
	htmlSuffix     = "Html"
)

// Renderer converts Markdown-authored fields of a document into HTML for
// public consumption.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GitHub-flavored extensions enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RenderHTML returns a copy of the document where every field named
// "<name>Markdown" gains a rendered "<name>Html" sibling. Fields that fail to
// render keep only their source; rendering is best effort.
func (r *Renderer) RenderHTML(d Document) Document {
	if d == nil {
		return nil
	}
	return Document(r.renderValue(map[string]any(d)).(map[string]any))
}

func (r *Renderer) renderValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.renderValue(item)
		}
		for k, item := range val {
			name, ok := strings.CutSuffix(k, markdownSuffix)
			if !ok || name == "" {
				continue
			}
			src, ok := item.(string)
			if !ok {
				continue
			}
			var buf bytes.Buffer
			if err := r.md.Convert([]byte(src), &buf); err != nil {
				continue
			}
			out[name+htmlSuffix] = buf.String()
		}
		return out
	case Document:
		return r.renderValue(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.renderValue(item)
		}
		return out
	default:
		return copyValue(val)
	}
}
