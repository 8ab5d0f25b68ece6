package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Template is one named prompt. The prompt text may reference $input,
// $text, $register and $filetype. When Replace is set the final result is
// substituted back into the document selection, filtered through Extract
// first when one is configured.
type Template struct {
	Name    string `yaml:"name"`
	Prompt  string `yaml:"prompt"`
	Replace bool   `yaml:"replace,omitempty"`
	Extract string `yaml:"extract,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// Input carries the values placeholders expand to. Register is called
// lazily so the clipboard is only touched when a template asks for it.
type Input struct {
	Input    string
	Text     string
	Filetype string
	Register func() (string, error)
}

// ErrEmptyInput reports a template that references $input or $text with
// nothing supplied.
var ErrEmptyInput = errors.New("prompt needs input text and none was provided")

// ErrMissingRegister reports a $register reference with an empty clipboard.
var ErrMissingRegister = errors.New("prompt references $register but the clipboard is empty")

var placeholderRe = regexp.MustCompile(`\$\w+`)

// Build expands tmpl's placeholders against in. A referenced placeholder
// with no source data fails the whole invocation here, before any network
// work starts. Unknown $words pass through untouched.
func Build(tmpl Template, in Input) (string, error) {
	var buildErr error
	out := placeholderRe.ReplaceAllStringFunc(tmpl.Prompt, func(match string) string {
		switch match {
		case "$input":
			if strings.TrimSpace(in.Input) == "" {
				buildErr = ErrEmptyInput
				return ""
			}
			return in.Input
		case "$text":
			if strings.TrimSpace(in.Text) == "" {
				buildErr = ErrEmptyInput
				return ""
			}
			return in.Text
		case "$register":
			if in.Register == nil {
				buildErr = ErrMissingRegister
				return ""
			}
			content, err := in.Register()
			if err != nil || strings.TrimSpace(content) == "" {
				buildErr = ErrMissingRegister
				return ""
			}
			return content
		case "$filetype":
			return in.Filetype
		default:
			return match
		}
	})
	if buildErr != nil {
		return "", buildErr
	}
	return out, nil
}

// Needs reports whether the template references the given placeholder.
func (t Template) Needs(placeholder string) bool {
	for _, match := range placeholderRe.FindAllString(t.Prompt, -1) {
		if match == placeholder {
			return true
		}
	}
	return false
}

// CompileExtract builds the template's extraction regexp, expanding
// $filetype into the pattern first. A nil regexp means no extraction is
// configured. With no filetype known, $filetype matches any fence token.
func (t Template) CompileExtract(filetype string) (*regexp.Regexp, error) {
	if t.Extract == "" {
		return nil, nil
	}
	token := `\w*`
	if filetype != "" {
		token = regexp.QuoteMeta(filetype)
	}
	pattern := strings.ReplaceAll(t.Extract, "$filetype", token)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid extract pattern %q: %w", t.Extract, err)
	}
	return re, nil
}

// ExtractLines applies re to text and returns the first capture group as
// lines, with leading and trailing blank lines dropped. ok is false when
// the pattern does not match.
func ExtractLines(re *regexp.Regexp, text string) (lines []string, ok bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	captured := m[0]
	if len(m) > 1 {
		captured = m[1]
	}
	return trimBlankEdges(strings.Split(captured, "\n")), true
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
