package prompt

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// defaultExtract pulls the first fenced code block out of a response.
const defaultExtract = "(?s)```$filetype\\n(.*?)```"

const plainOutput = "just output the final text without additional quotes around it"

// builtins mirror the everyday editing tasks the tool grew up around.
var builtins = []Template{
	{Name: "generate", Prompt: "$input", Replace: true},
	{Name: "ask", Prompt: "Regarding the following text, $input:\n$text"},
	{Name: "chat", Prompt: "$input"},
	{Name: "summarize", Prompt: "Summarize the following text:\n$text"},
	{Name: "change", Prompt: "Change the following text, $input, " + plainOutput + ":\n$text", Replace: true},
	{Name: "grammar", Prompt: "Modify the following text to improve grammar and spelling, " + plainOutput + ":\n$text", Replace: true},
	{Name: "wording", Prompt: "Modify the following text to use better wording, " + plainOutput + ":\n$text", Replace: true},
	{Name: "concise", Prompt: "Modify the following text to make it as simple and concise as possible, " + plainOutput + ":\n$text", Replace: true},
	{Name: "list", Prompt: "Render the following text as a markdown list:\n$text", Replace: true},
	{Name: "table", Prompt: "Render the following text as a markdown table:\n$text", Replace: true},
	{Name: "review", Prompt: "Review the following code and make concise suggestions:\n```$filetype\n$text\n```"},
	{Name: "enhance-code", Prompt: "Enhance the following code, only output the result in format ```$filetype\\n...\\n```:\n```$filetype\n$text\n```", Replace: true, Extract: defaultExtract},
	{Name: "change-code", Prompt: "Regarding the following code, $input, only output the result in format ```$filetype\\n...\\n```:\n```$filetype\n$text\n```", Replace: true, Extract: defaultExtract},
}

// Registry resolves templates by name. User templates shadow built-ins.
type Registry struct {
	templates map[string]Template
	user      map[string]bool
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{
		templates: make(map[string]Template, len(builtins)),
		user:      make(map[string]bool),
	}
	for _, t := range builtins {
		r.templates[t.Name] = t
	}
	return r
}

// LoadUser merges templates from a YAML file (a list of template objects).
// A missing file is fine; a malformed one is an error.
func (r *Registry) LoadUser(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}

	var loaded []Template
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, t := range loaded {
		if t.Name == "" {
			return fmt.Errorf("template without a name in %s", path)
		}
		if t.Prompt == "" {
			return fmt.Errorf("template %q has no prompt in %s", t.Name, path)
		}
		r.templates[t.Name] = t
		r.user[t.Name] = true
	}
	return nil
}

// Get looks a template up by name.
func (r *Registry) Get(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Names lists all template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsUser reports whether name came from the user templates file.
func (r *Registry) IsUser(name string) bool { return r.user[name] }
