package prompt

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/atotto/clipboard"
)

// DetectFiletype returns the language token for a file name, spelled the
// way fenced code blocks spell it. Empty when the language is unknown.
func DetectFiletype(path string) string {
	if path == "" {
		return ""
	}
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

// ClipboardRegister reads the system clipboard. It is the $register source
// for real runs; tests inject their own.
func ClipboardRegister() (string, error) {
	return clipboard.ReadAll()
}
