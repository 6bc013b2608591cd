// Package manifest extracts the host project's version string from its
// package manifest (package.json).
package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/package-manifest.json
var manifestSchema string

// DefaultPath is the manifest location relative to the working directory.
const DefaultPath = "package.json"

// Version reads the manifest at path, validates it against the embedded
// schema, and returns its version string. The manifest is a read-only
// collaborator; callers treat any error as a recoverable lookup failure.
func Version(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse manifest %s: %w", path, err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(manifestSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return "", fmt.Errorf("validate manifest %s: %w", path, err)
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return "", fmt.Errorf("invalid manifest %s: %s", path, strings.Join(messages, "; "))
	}
	version, _ := doc["version"].(string)
	return version, nil
}
