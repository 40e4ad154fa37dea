package communicator

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiscoverMany scans the immediate subdirectories of root for communicator
// plugins, returning every one that passes manifest validation and trust
// checks. A subdirectory with no manifest.yaml is silently skipped — not
// every directory under a plugins root need be a plugin. A subdirectory
// whose manifest.yaml exists but fails validation is reported as an error
// alongside whatever other plugins were found, since an operator mistake in
// one plugin's manifest should not hide the rest.
func DiscoverMany(root string) ([]*Plugin, []error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, []error{fmt.Errorf("read plugins root %s: %w", root, err)}
	}

	var plugins []*Plugin
	var errs []error

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}

		p, err := Discover(dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", entry.Name(), err))
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, errs
}

// FindByName discovers every plugin under root and returns the one matching
// name, or an error if it's absent.
func FindByName(root, name string) (*Plugin, error) {
	plugins, errs := DiscoverMany(root)
	for _, p := range plugins {
		if p.Name == name {
			return p, nil
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("plugin %q not found under %s (and %d manifest(s) failed validation: %v)", name, root, len(errs), errs)
	}
	return nil, fmt.Errorf("plugin %q not found under %s", name, root)
}
