// Package render turns markdown into post HTML and highlights stored HTML
// for terminal previews.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

func getStyle(name string) *chroma.Style {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// HighlightCode renders a fenced code block as HTML with inline styles, so
// it displays correctly wherever the post content is shown.
func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre><code>" + escape(code) + "</code></pre>"
	}

	var buf strings.Builder
	formatter := html.New(html.WithClasses(false), html.TabWidth(4))
	if err := formatter.Format(&buf, getStyle(highlightTheme), iterator); err != nil {
		renderLogger.Warn().Err(err).Str("language", language).Msg("Failed to highlight code block")
		return "<pre><code>" + escape(code) + "</code></pre>"
	}
	return buf.String()
}

func escape(s string) string {
	var buf strings.Builder
	md_html.EscapeHTML(&buf, []byte(s))
	return buf.String()
}

// MarkdownToHTML converts markdown to the HTML stored as post content.
func MarkdownToHTML(md []byte, highlightTheme string) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				highlighted := HighlightCode(string(code.Literal), lang, highlightTheme)
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
				return ast.GoToNext, true
			}

			return ast.GoToNext, false
		},
	}

	md = markdown.NormalizeNewlines(md)
	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.NoIntraEmphasis,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// Title returns the text of the first level one heading, if any.
func Title(md []byte) string {
	doc := parser.NewWithExtensions(parser.CommonExtensions).Parse(markdown.NormalizeNewlines(md))

	var title string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		heading, ok := node.(*ast.Heading)
		if !ok || !entering || heading.Level != 1 {
			return ast.GoToNext
		}

		var sb strings.Builder
		ast.WalkFunc(heading, func(n ast.Node, entering bool) ast.WalkStatus {
			if leaf := n.AsLeaf(); leaf != nil && entering {
				sb.Write(leaf.Literal)
			}
			return ast.GoToNext
		})
		title = strings.TrimSpace(sb.String())
		return ast.Terminate
	})
	return title
}
