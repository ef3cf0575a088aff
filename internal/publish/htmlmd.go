package publish

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToMarkdown converts sanitized parent html into markdown. Only the tags the
// sanitizer keeps are mapped; anything else contributes its text.
func HTMLToMarkdown(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	var href []string
	listDepth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseBlankLines(b.String())
		case html.TextToken:
			b.WriteString(collapseSpace(string(z.Text())))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch tag := string(name); tag {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteString("\n\n" + strings.Repeat("#", int(tag[1]-'0')) + " ")
			case "p", "div", "section", "table":
				b.WriteString("\n\n")
			case "br":
				b.WriteString("\\\n")
			case "tr":
				b.WriteString("\n")
			case "td", "th":
				b.WriteString(" ")
			case "strong", "b":
				b.WriteString("**")
			case "em", "i":
				b.WriteString("_")
			case "code":
				b.WriteString("`")
			case "ul", "ol":
				listDepth++
				b.WriteString("\n")
			case "li":
				b.WriteString("\n" + strings.Repeat("  ", max(listDepth-1, 0)) + "- ")
			case "a":
				url := ""
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					if string(k) == "href" {
						url = string(v)
					}
				}
				href = append(href, url)
				b.WriteString("[")
			case "img":
				alt, srcURL := "", ""
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					switch string(k) {
					case "alt":
						alt = string(v)
					case "src":
						srcURL = string(v)
					}
				}
				if srcURL != "" {
					b.WriteString("![" + alt + "](" + srcURL + ")")
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "table":
				b.WriteString("\n\n")
			case "strong", "b":
				b.WriteString("**")
			case "em", "i":
				b.WriteString("_")
			case "code":
				b.WriteString("`")
			case "ul", "ol":
				listDepth = max(listDepth-1, 0)
				b.WriteString("\n\n")
			case "a":
				url := ""
				if n := len(href); n > 0 {
					url, href = href[n-1], href[:n-1]
				}
				if url == "" {
					b.WriteString("]")
				} else {
					b.WriteString("](" + url + ")")
				}
			}
		}
	}
}

// collapseSpace folds runs of whitespace to one space, keeping a single space at either
// edge so inline elements stay separated.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(strings.Fields(s), " ")
	if strings.TrimLeft(s, " \t\r\n") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n") != s {
		out += " "
	}
	return out
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t")
		if strings.TrimSpace(ln) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, ln)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
