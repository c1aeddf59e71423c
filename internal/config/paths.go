package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDataRoot holds runtime state when neither data_root nor VMS_DATA_ROOT is set.
const DefaultDataRoot = "var"

// DataRoot returns the directory for runtime state such as the activity log spool.
func (c *Config) DataRoot() string {
	if c.Server.DataRoot != "" {
		return c.Server.DataRoot
	}
	return DefaultDataRoot
}

// SpoolDir resolves audit.spool_dir against the data root. Relative paths may
// not escape it.
func (c *Config) SpoolDir() (string, error) {
	dir := c.Audit.SpoolDir
	if dir == "" {
		dir = "audit_spool"
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	return SafeJoin(c.DataRoot(), dir)
}

// EnsureDirs creates the data subdirectories the server writes to.
func (c *Config) EnsureDirs() error {
	spool, err := c.SpoolDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{c.DataRoot(), spool} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SafeJoin joins elements onto base and rejects results outside base.
func SafeJoin(base string, elements ...string) (string, error) {
	for _, el := range elements {
		if filepath.IsAbs(el) || strings.HasPrefix(el, `\\`) {
			return "", fmt.Errorf("path traversal attempt detected: absolute path not allowed in elements: %s", el)
		}
	}
	joined := filepath.Join(append([]string{base}, elements...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt detected: %s is outside %s", absJoined, absBase)
	}
	return absJoined, nil
}
