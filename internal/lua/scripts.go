package lua

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sanitizeFilename rejects anything but a plain .lua file name.
func sanitizeFilename(name string) (string, error) {
	if !strings.HasSuffix(name, ".lua") {
		return "", errors.New("filename must end with .lua")
	}
	clean := filepath.Base(name)
	if clean != name || clean == ".lua" || strings.Contains(clean, "..") {
		return "", errors.New("invalid filename")
	}
	return clean, nil
}

// ScriptPath returns the path of a script inside the scripts directory, creating the
// directory if needed.
func (e *Engine) ScriptPath(name string) (string, error) {
	clean, err := sanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(e.scriptsDir); os.IsNotExist(err) {
		log.Printf("[Lua] Creating scripts directory: %s", e.scriptsDir)
		if err := os.MkdirAll(e.scriptsDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create scripts directory: %w", err)
		}
	}
	return filepath.Join(e.scriptsDir, clean), nil
}

// ScriptCode returns the source of a script.
func (e *Engine) ScriptCode(name string) (string, error) {
	path, err := e.ScriptPath(name)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// SaveScript writes a script, replacing any existing one.
func (e *Engine) SaveScript(name, code string) error {
	path, err := e.ScriptPath(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(code), 0o644)
}

// DeleteScript removes a script.
func (e *Engine) DeleteScript(name string) error {
	path, err := e.ScriptPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Scripts lists the .lua files in the scripts directory, sorted.
func (e *Engine) Scripts() ([]string, error) {
	var scripts []string
	entries, err := os.ReadDir(e.scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return scripts, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".lua" {
			scripts = append(scripts, entry.Name())
		}
	}
	sort.Strings(scripts)
	return scripts, nil
}
