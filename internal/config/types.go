// Package config holds the typed configuration for the pilot data-movement
// and communication core.
package config

import "time"

// Config is the complete pilotd configuration.
type Config struct {
	Service      ServiceConfig      `yaml:"service"`
	Copytool     CopytoolConfig     `yaml:"copytool"`
	Workers      WorkersConfig      `yaml:"workers"`
	Communicator CommunicatorConfig `yaml:"communicator"`
	API          APIConfig          `yaml:"api,omitempty"`
	LogPackager  LogPackagerConfig  `yaml:"log_packager"`
}

// ServiceConfig holds process-wide timing and logging settings.
type ServiceConfig struct {
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	QueueTimeout      time.Duration `yaml:"queue_timeout"`
	RunnerTick        time.Duration `yaml:"runner_tick"`
	RunnerGracePeriod time.Duration `yaml:"runner_grace_period"`
}

// CopytoolConfig describes how to invoke the external transfer tool.
type CopytoolConfig struct {
	DownloadPath string            `yaml:"download_path"`
	UploadPath   string            `yaml:"upload_path"`
	Env          map[string]string `yaml:"env,omitempty"`
}

// WorkersConfig sizes the pipeline's worker pools.
type WorkersConfig struct {
	StageInWorkers  int `yaml:"stage_in_workers"`
	StageOutWorkers int `yaml:"stage_out_workers"`
}

// CommunicatorConfig holds a backend plugin name and arguments. cmd/pilotd
// does not read it: the backend is chosen from the COMMUNICATOR_PLUGIN
// environment variable, and Args is not passed to the selected communicator.
type CommunicatorConfig struct {
	// Plugin mirrors the COMMUNICATOR_PLUGIN environment variable:
	// "" (unset), "act", "harvestersf", or anything else falls back to the default.
	Plugin string            `yaml:"plugin"`
	Args   map[string]string `yaml:"args,omitempty"`
}

// APIConfig controls the read-only diagnostics HTTP surface.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogPackagerConfig controls log tarball assembly.
type LogPackagerConfig struct {
	DenyList []string `yaml:"deny_list"`
}

// Defaults returns a Config populated with the core's built-in defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			QueueTimeout:      1 * time.Second,
			RunnerTick:        100 * time.Millisecond,
			RunnerGracePeriod: 3 * time.Second,
		},
		Copytool: CopytoolConfig{
			DownloadPath: "rucio",
			UploadPath:   "rucio",
		},
		Workers: WorkersConfig{
			StageInWorkers:  1,
			StageOutWorkers: 1,
		},
		Communicator: CommunicatorConfig{
			Plugin: "",
			Args:   make(map[string]string),
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		LogPackager: LogPackagerConfig{
			DenyList: []string{"geomDB", "sqlite200"},
		},
	}
}
