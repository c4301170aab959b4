package router

import (
	"path"
	"regexp"
	"strings"

	"github.com/user/simterm/internal/catalog"
	"github.com/user/simterm/internal/types"
)

// Handler produces the response for a matched intent. file is the trimmed
// capture, or the project's default file when the intent needs one and the
// query named none.
type Handler func(file string, p *types.Project) types.CommandResponse

// Intent is one row of the natural-language strategy table.
type Intent struct {
	Name      string
	Patterns  []*regexp.Regexp
	NeedsFile bool
	Handle    Handler
}

// Match tries the intent's patterns in order and returns the first capture.
func (in Intent) Match(query string) (string, bool) {
	for _, re := range in.Patterns {
		m := re.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		file := ""
		if len(m) > 1 {
			file = strings.Trim(strings.TrimSpace(m[1]), "\"'`")
		}
		return file, true
	}
	return "", false
}

const fileExpr = "[\"'`]?([\\w./-]+)"

// pickFile decides which file a query names. A capture counts only if it
// looks like a path or names a project file; otherwise the rest of the query
// is searched the same way. An empty result means the query named no file.
func pickFile(capture, query string, p *types.Project) string {
	tokens := fileTokens(query)
	if looksLikePath(capture) {
		return capture
	}
	for _, tok := range tokens {
		if looksLikePath(tok) {
			return tok
		}
	}
	if namesFile(capture, p) {
		return capture
	}
	for _, tok := range tokens {
		if namesFile(tok, p) {
			return tok
		}
	}
	return ""
}

func fileTokens(query string) []string {
	var out []string
	for _, f := range strings.Fields(query) {
		tok := strings.TrimFunc(f, func(r rune) bool { return !isFileRune(r) })
		tok = strings.TrimRight(tok, ".")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func isFileRune(r rune) bool {
	return r == '.' || r == '/' || r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func looksLikePath(s string) bool {
	if strings.Contains(s, "/") {
		return true
	}
	ext := path.Ext(s)
	return len(ext) > 1 && len(ext) < len(s)
}

// namesFile matches a bare word against file paths, leaf names and leaf
// names without extension. No substring matching: filler words must miss.
func namesFile(word string, p *types.Project) bool {
	if word == "" || p == nil {
		return false
	}
	for _, f := range p.Files {
		leaf := path.Base(f.Path)
		stem := strings.TrimSuffix(leaf, path.Ext(leaf))
		if f.Path == word || leaf == word || strings.EqualFold(stem, word) {
			return true
		}
	}
	return false
}

// DefaultIntents returns the ordered table: describe, list-files,
// explain-file, fix-bug, write-tests, refactor. Order is precedence.
func DefaultIntents() []Intent {
	return []Intent{
		{
			Name: "describe",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(describe|analy[sz]e|overview|summari[sz]e)\b`),
				regexp.MustCompile(`(?i)what\s+(is|does)\s+this\s+(project|repo|codebase|code)`),
				regexp.MustCompile(`(?i)explain\s+(this|the)\s+(project|repo|codebase)`),
				regexp.MustCompile(`프로젝트.*(설명|분석|요약|소개)`),
				regexp.MustCompile(`(이|무슨)\s*프로젝트(는|가)?\s*(뭐|무엇)`),
			},
			Handle: func(_ string, p *types.Project) types.CommandResponse {
				return catalog.Describe(p)
			},
		},
		{
			Name: "list-files",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(list|show)\s+(me\s+)?(all\s+|the\s+)?files\b`),
				regexp.MustCompile(`(?i)what\s+files`),
				regexp.MustCompile(`파일\s*(목록|리스트)`),
				regexp.MustCompile(`(어떤|무슨)\s*파일`),
			},
			Handle: func(_ string, p *types.Project) types.CommandResponse {
				return catalog.ListFiles(p)
			},
		},
		{
			Name:      "explain-file",
			NeedsFile: true,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bexplain\s+(?:the\s+)?(?:file\s+)?` + fileExpr),
				regexp.MustCompile(`(?i)what\s+does\s+` + fileExpr + `\s+do`),
				regexp.MustCompile(`([\w./-]+)\s*(?:파일)?\s*(?:을|를|이|가)?\s*(?:설명|분석)`),
			},
			Handle: catalog.Explain,
		},
		{
			Name:      "fix-bug",
			NeedsFile: true,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bfix\b.*?\b(?:in|on)\s+` + fileExpr),
				regexp.MustCompile(`(?i)\bfix\s+(?:the\s+)?["'` + "`" + `]?([\w./-]+\.\w+)`),
				regexp.MustCompile(`(?i)\b(?:fix|debug)\b`),
				regexp.MustCompile(`([\w./-]+)\s*(?:파일)?\s*(?:의|에서|에 있는)?\s*버그`),
				regexp.MustCompile(`버그.*(?:고쳐|수정|해결)`),
			},
			Handle: catalog.FixBug,
		},
		{
			Name:      "write-tests",
			NeedsFile: true,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:write|add|create|generate)\s+(?:some\s+)?(?:unit\s+)?tests?\s+(?:for|of)\s+` + fileExpr),
				regexp.MustCompile(`(?i)\b(?:write|add|create|generate)\s+(?:some\s+)?(?:unit\s+)?tests?\b`),
				regexp.MustCompile(`([\w./-]+)\s*(?:파일)?\s*(?:에 대한|의|에)?\s*테스트`),
				regexp.MustCompile(`테스트\s*(?:를|을)?\s*(?:작성|만들|생성)`),
			},
			Handle: catalog.WriteTests,
		},
		{
			Name: "refactor",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\brefactor`),
				regexp.MustCompile(`리팩(?:토|터)링`),
			},
			Handle: func(_ string, _ *types.Project) types.CommandResponse {
				return catalog.Refactor()
			},
		},
	}
}
