/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadContextFiles reads the content of the specified context files and combines them into a single string.
func ReadContextFiles(filePaths string) (string, error) {
	if filePaths == "" {
		return "", nil // No context files provided
	}

	var combinedContext strings.Builder
	for _, path := range ParseListFlag(filePaths) {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read context file '%s': %w", path, err)
		}
		combinedContext.WriteString("\n-- Context from file: " + filepath.Base(path) + " --\n")
		combinedContext.WriteString(string(content))
	}
	return combinedContext.String(), nil
}

// GetDefaultOutputFilePath names the report file of a dataset after the
// report format.
func GetDefaultOutputFilePath(datasetName, format string) string {
	if datasetName == "" {
		datasetName = "dataset"
	}
	switch format {
	case "markdown":
		return fmt.Sprintf("%s_quality.md", datasetName)
	case "json", "yaml", "csv":
		return fmt.Sprintf("%s_quality.%s", datasetName, format)
	default: // text
		return fmt.Sprintf("%s_quality.txt", datasetName)
	}
}

// WriteToFile writes content to filePath, creating parent directories.
func WriteToFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// ParseListFlag splits a comma-separated flag value, trimming spaces and
// dropping empty entries.
func ParseListFlag(flag string) []string {
	var result []string
	for _, part := range SplitOutsideBrackets(flag) {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// SplitOutsideBrackets Helper function to split string by commas that are not within brackets
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	inBrackets := false

	for _, char := range s {
		switch char {
		case '[':
			inBrackets = true
			current.WriteRune(char)
		case ']':
			inBrackets = false
			current.WriteRune(char)
		case ',':
			if inBrackets {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add the last part
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
