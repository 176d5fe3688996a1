package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// secretFs is where *_FILE secrets are read from.
var secretFs = afero.NewOsFs()

// ResolveSecret returns the value of name, preferring the contents of the
// file named by name+"_FILE" when that is set. Surrounding whitespace in the
// file is trimmed. An unset secret is the empty string.
func ResolveSecret(name string) (string, error) {
	path, ok := os.LookupEnv(name + "_FILE")
	if !ok || path == "" {
		return os.Getenv(name), nil
	}
	raw, err := afero.ReadFile(secretFs, path)
	if err != nil {
		// Report the path only, never file content.
		return "", fmt.Errorf("read secret %s_FILE: %w", name, err)
	}
	return strings.TrimSpace(string(raw)), nil
}
