// Command pilotd is the pilot data-movement and communication core's
// daemon entry point: it wires the queue bundle, the stage-in/stage-out
// workers, the queue monitor, the communication manager, and (optionally)
// the read-only diagnostics API into one running process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/dougbenjamin/pilot3/internal/api"
	"github.com/dougbenjamin/pilot3/internal/commmgr"
	"github.com/dougbenjamin/pilot3/internal/communicator"
	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/monitor"
	"github.com/dougbenjamin/pilot3/internal/pidlock"
	"github.com/dougbenjamin/pilot3/internal/queues"
	"github.com/dougbenjamin/pilot3/internal/transfer"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	noun := os.Args[1]
	args := os.Args[2:]

	switch noun {
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "version":
		fmt.Printf("pilotd version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", noun)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`pilotd - pilot data-movement and communication core

Usage:
  pilotd <noun> <action> [flags]

Nouns:
  system    Daemon lifecycle and preflight checks
  config    Configuration inspection

System Commands:
  system start   Start the data-movement pipeline and communication manager
  system doctor  Preflight-check the configured copytool binaries
  system status  Show whether a local pilotd instance is running

Config Commands:
  config show    Print the resolved configuration

General:
  version        Show version information
  help           Show this help message
`)
}

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pilotd system <start|doctor|status>")
		return 1
	}
	action, actionArgs := args[0], args[1:]

	switch action {
	case "start":
		return runStart(actionArgs)
	case "doctor":
		return runDoctor(actionArgs)
	case "status":
		return runStatus(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pilotd config <show>")
		return 1
	}
	action, actionArgs := args[0], args[1:]

	switch action {
	case "show":
		return runConfigShow(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(configPath)
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to pilotd.yaml (defaults if omitted)")
	jsonOut := fs.Bool("json", false, "Output in JSON instead of YAML")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
		return 0
	}
	data, _ := yaml.Marshal(cfg)
	fmt.Print(string(data))
	return 0
}

// runDoctor preflight-checks that the configured copytool binaries resolve
// and are executable, catching a misconfigured transfer tool before the
// daemon starts draining queues.
func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to pilotd.yaml (defaults if omitted)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	ok := true
	for _, check := range []struct {
		label string
		path  string
	}{
		{"copytool.download_path", cfg.Copytool.DownloadPath},
		{"copytool.upload_path", cfg.Copytool.UploadPath},
	} {
		if _, err := exec.LookPath(check.path); err != nil {
			fmt.Printf("FAIL %s: %q not found or not executable (%v)\n", check.label, check.path, err)
			ok = false
			continue
		}
		fmt.Printf("OK   %s: %q resolves\n", check.label, check.path)
	}

	if cfg.API.Enabled {
		fmt.Printf("OK   api.listen: %s (diagnostics API enabled)\n", cfg.API.Listen)
	} else {
		fmt.Println("SKIP api: diagnostics API disabled")
	}

	if !ok {
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to pilotd.yaml (defaults if omitted)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	lockPath := pidLockPath(*configPath)
	probe, err := pidlock.Acquire(lockPath)
	if err != nil {
		fmt.Printf("pilotd is running (lock held at %s)\n", lockPath)
		return 0
	}
	probe.Release()
	fmt.Printf("pilotd is not running (no lock at %s)\n", lockPath)
	if cfg.API.Enabled {
		fmt.Printf("diagnostics API configured at %s when running\n", cfg.API.Listen)
	}
	return 0
}

// pidLockPath derives the singleton lock path as a sibling of the config
// file, or the working directory when no config was given.
func pidLockPath(configPath string) string {
	dir := "."
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}
	return filepath.Join(dir, "pilotd.pid")
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to pilotd.yaml (defaults if omitted)")
	pluginsDir := fs.String("plugins-dir", "", "Directory to search for an external communicator plugin")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("pilotd starting", "version", version, "config", *configPath)

	lockPath := pidLockPath(*configPath)
	lock, err := pidlock.Acquire(lockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", lockPath, "error", err)
		return 1
	}
	defer lock.Release()
	logger.Info("acquired PID lock", "path", lockPath)

	bundle := queues.NewBundle()
	hub := events.NewHub(200)

	comm := selectCommunicator(cfg, *pluginsDir, logger)
	manager := commmgr.New(comm, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < cfg.Workers.StageInWorkers; i++ {
		w := &transfer.StageInWorker{Queues: bundle, Config: cfg, Reporter: transfer.NoopStateReporter{}, Events: hub}
		go w.Run(ctx)
	}
	for i := 0; i < cfg.Workers.StageOutWorkers; i++ {
		w := &transfer.StageOutWorker{Queues: bundle, Config: cfg, Events: hub}
		go w.Run(ctx)
	}

	mon := &monitor.Monitor{Queues: bundle, Config: cfg, Events: hub}
	go mon.Run(ctx)

	go manager.Run()

	errCh := make(chan error, 1)
	if cfg.API.Enabled {
		apiServer := api.New(cfg.API.Listen, bundle, manager, hub)
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("diagnostics api: %w", err)
			}
		}()
		logger.Info("diagnostics API enabled", "listen", cfg.API.Listen)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("pilotd running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("component failed", "error", err)
	}

	cancel()
	manager.Stop()
	<-manager.Done()

	logger.Info("pilotd stopped")
	return 0
}

// selectCommunicator resolves the COMMUNICATOR_PLUGIN environment
// variable: a fixed set of built-in names falling back to the default.
// When a non-default name is selected and pluginsDir is provided, an
// external plugin is discovered and used; otherwise the core falls back to
// a no-op communicator and logs that no real backend is wired in.
func selectCommunicator(cfg *config.Config, pluginsDir string, logger interface {
	Info(string, ...any)
	Warn(string, ...any)
}) commmgr.Communicator {
	name := communicator.Select(os.Getenv("COMMUNICATOR_PLUGIN"))
	if name == "default" {
		logger.Info("using default no-op communicator", "plugin", name)
		return communicator.Noop{}
	}

	if pluginsDir == "" {
		logger.Warn("communicator plugin selected but no --plugins-dir given, falling back to no-op", "plugin", name)
		return communicator.Noop{}
	}

	plugin, err := communicator.FindByName(pluginsDir, name)
	if err != nil {
		logger.Warn("failed to discover communicator plugin, falling back to no-op", "plugin", name, "error", err)
		return communicator.Noop{}
	}

	logger.Info("using external communicator plugin", "plugin", name, "entrypoint", plugin.Entrypoint)
	return communicator.NewExternal(plugin, transfer.RunnerOptions(cfg))
}
