package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/debemdeboas/draftdesk/internal/cache"
	"github.com/debemdeboas/draftdesk/internal/util"
)

// HighlightHTML colours HTML source with ANSI escapes for a 256 colour
// terminal. The content is shown as is; nothing is sanitised.
func HighlightHTML(src, theme string) (string, error) {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src, err
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, getStyle(theme), iterator); err != nil {
		return src, err
	}
	return buf.String(), nil
}

type previewKey struct {
	contentHash string
	theme       string
}

// Previewer memoises HighlightHTML by content hash and theme.
type Previewer struct {
	theme string
	cache *cache.Cache[previewKey, string]
}

func NewPreviewer(theme string) *Previewer {
	return &Previewer{
		theme: theme,
		cache: cache.NewCache[previewKey, string](),
	}
}

func (p *Previewer) Preview(content string) string {
	key := previewKey{contentHash: util.ContentHashString(content), theme: p.theme}
	if cached, ok := p.cache.Get(key); ok {
		renderLogger.Debug().Str("contentHash", key.contentHash).Msg("Cache hit for preview")
		return cached
	}

	highlighted, err := HighlightHTML(content, p.theme)
	if err != nil {
		renderLogger.Warn().Err(err).Msg("Failed to highlight preview")
		return content
	}

	p.cache.Set(key, highlighted)
	return highlighted
}
