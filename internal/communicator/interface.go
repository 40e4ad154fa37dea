// Package communicator defines the environment-driven COMMUNICATOR_PLUGIN
// backend selection, plus discovery of externally supplied plugins via a
// manifest. The Communicator contract itself lives in internal/commmgr to
// avoid an import cycle with the manager; this package's backends
// implement it directly.
package communicator

import "github.com/dougbenjamin/pilot3/internal/commmgr"

// PreCheckResult is an alias of commmgr.PreCheck for readability in this
// package's backend implementations.
type PreCheckResult = commmgr.PreCheck

// Communicator is an alias of commmgr.Communicator: the contract every
// backend in this package implements.
type Communicator = commmgr.Communicator

// Select resolves the built-in plugin name the way the manager chooses a
// backend at startup: consult COMMUNICATOR_PLUGIN (passed in explicitly as
// pluginEnv, since this core observes the environment read-only), falling
// back to the default for unset or unrecognized values.
func Select(pluginEnv string) string {
	switch pluginEnv {
	case "act":
		return "act"
	case "harvestersf":
		return "harvestersf"
	default:
		return "default"
	}
}
