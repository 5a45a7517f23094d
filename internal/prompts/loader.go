// Package prompts holds the instruction profiles sent with every stage call.
// Profiles are markdown files embedded at compile time.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.md
var promptFiles embed.FS

var (
	cache   = make(map[string]string)
	cacheMu sync.RWMutex
)

// Get returns the profile stored in name + ".md".
func Get(name string) (string, error) {
	cacheMu.RLock()
	if prompt, ok := cache[name]; ok {
		cacheMu.RUnlock()
		return prompt, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
	}
	prompt := strings.TrimSpace(string(data))

	cacheMu.Lock()
	cache[name] = prompt
	cacheMu.Unlock()

	return prompt, nil
}

// MustGet is Get for profiles required at initialization time.
func MustGet(name string) string {
	prompt, err := Get(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// ClearCache is used by tests.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]string)
	cacheMu.Unlock()
}
