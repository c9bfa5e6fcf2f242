package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	hjson "github.com/hjson/hjson-go/v4"
)

// LoadFromDirectory loads prompt overrides from baseDir/prompts. Files are
// JSON or Hjson PromptTemplates; the ID defaults to the path relative to the
// prompts folder, so prompts/debate/vote.json overrides "debate.vote".
//
//	baseDir/
//	  prompts/
//	    debate/
//	      argument.hjson
//	      vote.json
//
// A missing prompts folder is not an error: the built-in templates are used.
func LoadFromDirectory(baseDir string) (int, error) {
	registry := Get()
	promptDir := filepath.Join(baseDir, "prompts")

	if _, err := os.Stat(promptDir); os.IsNotExist(err) {
		slog.Info("no prompt overrides found, using built-in templates", "dir", promptDir)
		return 0, nil
	}

	loaded := 0
	err := filepath.WalkDir(promptDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".json" && ext != ".hjson") {
			return nil
		}

		pt, err := readTemplate(path)
		if err != nil {
			return err
		}
		if pt.ID == "" {
			pt.ID = generateIDFromPath(path, promptDir)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(path, promptDir)
		}
		// Fail at load time rather than mid-debate
		if _, err := template.New(pt.ID).Parse(pt.UserPromptTmpl); err != nil {
			return fmt.Errorf("template %s in %s: %w", pt.ID, path, err)
		}
		if err := registry.Register(pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("failed to load prompts: %w", err)
	}

	slog.Info("loaded prompt overrides", "count", loaded, "dir", promptDir)
	return loaded, nil
}

func readTemplate(path string) (*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pt PromptTemplate
	if filepath.Ext(path) == ".hjson" {
		// hjson decodes into maps; round-trip through JSON for the struct tags
		var raw map[string]interface{}
		if err := hjson.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &pt, nil
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "prompts/debate/vote.json" -> "debate.vote"
func generateIDFromPath(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	relPath = strings.ReplaceAll(relPath, string(filepath.Separator), ".")
	return relPath
}

// detectCategory extracts the category from the folder structure
func detectCategory(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	parts := strings.Split(relPath, string(filepath.Separator))
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

// RenderUserPrompt executes the user prompt template with ctx. Variables
// the template declares as required must be set.
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}
	for _, v := range pt.Variables {
		if _, ok := ctx.Variables[v.Name]; v.Required && !ok {
			return "", fmt.Errorf("prompt %s: missing required variable %s", pt.ID, v.Name)
		}
	}

	tmpl, err := template.New(pt.ID).Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
