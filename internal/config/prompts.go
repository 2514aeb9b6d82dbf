package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogo/docchat/internal/models"
)

const promptsFileName = "prompts.json"

// GetPromptsPath returns the path to the user prompt catalog
func GetPromptsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, promptsFileName), nil
}

// LoadPrompts returns the user's prompt catalog (a JSON array of strings) in
// declared order, or the built-in catalog when the file is absent or empty.
// Blank entries are skipped; duplicates are kept.
func LoadPrompts() ([]string, error) {
	path, err := GetPromptsPath()
	if err != nil {
		return models.DefaultPrompts(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultPrompts(), nil
		}
		return models.DefaultPrompts(), fmt.Errorf("failed to read prompts: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.DefaultPrompts(), fmt.Errorf("failed to parse prompts: %w", err)
	}

	prompts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return models.DefaultPrompts(), nil
	}
	return prompts, nil
}

// SavePrompts writes a custom prompt catalog
func SavePrompts(prompts []string) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(prompts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prompts: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, promptsFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write prompts: %w", err)
	}
	return nil
}
