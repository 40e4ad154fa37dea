package communicator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dougbenjamin/pilot3/internal/protocol"
)

// SupportedManifestSpec pins the manifest schema this core understands.
const SupportedManifestSpec = "pilot3-communicator/v1"

// Manifest describes an externally discovered communicator plugin.
type Manifest struct {
	ManifestSpec string `yaml:"manifest_spec"`
	Name         string `yaml:"name"`
	Protocol     int    `yaml:"protocol"`
	Entrypoint   string `yaml:"entrypoint"`
	Description  string `yaml:"description,omitempty"`
}

// Plugin is a validated, discovered external communicator plugin.
type Plugin struct {
	Name       string
	Path       string
	Entrypoint string
	Protocol   int
}

// Discover loads and validates a single plugin directory's manifest.yaml,
// enforcing the trust checks every discovered plugin must pass: the
// entrypoint must resolve under the plugin's own directory, be executable,
// and the directory must not be world-writable.
func Discover(pluginDir string) (*Plugin, error) {
	manifestPath := filepath.Join(pluginDir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	entrypoint := filepath.Join(pluginDir, m.Entrypoint)
	if err := validateTrust(entrypoint, pluginDir); err != nil {
		return nil, fmt.Errorf("trust validation failed: %w", err)
	}

	return &Plugin{
		Name:       m.Name,
		Path:       pluginDir,
		Entrypoint: entrypoint,
		Protocol:   m.Protocol,
	}, nil
}

func validateManifest(m *Manifest) error {
	if m.ManifestSpec != SupportedManifestSpec {
		return fmt.Errorf("unsupported manifest_spec %q (supported: %q)", m.ManifestSpec, SupportedManifestSpec)
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Protocol != protocol.SupportedProtocol {
		return fmt.Errorf("unsupported protocol version %d (supported: %d)", m.Protocol, protocol.SupportedProtocol)
	}
	if m.Entrypoint == "" {
		return fmt.Errorf("entrypoint is required")
	}
	if strings.Contains(m.Entrypoint, "..") {
		return fmt.Errorf("entrypoint contains path traversal: %s", m.Entrypoint)
	}
	return nil
}

// validateTrust enforces that a discovered entrypoint cannot escape its own
// plugin directory, is executable, and that directory is not world-writable.
func validateTrust(entrypoint, pluginDir string) error {
	resolvedEntrypoint, err := filepath.EvalSymlinks(entrypoint)
	if err != nil {
		return fmt.Errorf("resolve entrypoint symlink: %w", err)
	}
	resolvedDir, err := filepath.EvalSymlinks(pluginDir)
	if err != nil {
		return fmt.Errorf("resolve plugin dir symlink: %w", err)
	}

	if !strings.HasPrefix(resolvedEntrypoint, resolvedDir+string(os.PathSeparator)) {
		return fmt.Errorf("entrypoint %s is not under plugin directory %s", resolvedEntrypoint, resolvedDir)
	}

	info, err := os.Stat(resolvedEntrypoint)
	if err != nil {
		return fmt.Errorf("entrypoint not found: %w", err)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("entrypoint is not executable: %s", resolvedEntrypoint)
	}

	dirInfo, err := os.Stat(resolvedDir)
	if err != nil {
		return fmt.Errorf("plugin directory not found: %w", err)
	}
	if dirInfo.Mode().Perm()&0o002 != 0 {
		return fmt.Errorf("plugin directory is world-writable: %s", resolvedDir)
	}

	return nil
}
