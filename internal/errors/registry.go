package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration errors (E100-E119)

	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not readable",
		Detail:   "The configuration file could not be opened or read.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not parseable",
		Detail:   "The configuration file is not valid JSON (comments and trailing commas are allowed) or YAML.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid URL",
		Detail:   "The socket URL must use the ws or wss scheme and the API URL http or https.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .jsonc, .yaml or .yml.",
	},

	// CLI errors (E200-E219)

	"E200": {
		Category: CategoryCLI,
		Message:  "Missing board",
		Detail:   "A board must be given with --board or in the configuration file.",
	},
	"E201": {
		Category: CategoryCLI,
		Message:  "Invalid log format",
		Detail:   "The log format must be text or json.",
	},
	"E202": {
		Category: CategoryCLI,
		Message:  "Invalid log level",
		Detail:   "The log level must be debug, info, warn or error.",
	},
	"E203": {
		Category: CategoryCLI,
		Message:  "Metrics server failed",
		Detail:   "The metrics endpoint could not listen on the given address.",
	},
	"E204": {
		Category: CategoryCLI,
		Message:  "Invalid error format",
		Detail:   "The error format must be text or json.",
	},
	"E205": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command could not be run with the given arguments.",
	},

	// Connection and synchronisation errors (E300-E319)

	"E300": {
		Category: CategoryConnection,
		Message:  "Thread not loaded",
		Detail:   "The initial state of the thread could not be fetched from the JSON API.",
	},
	"E301": {
		Category: CategorySync,
		Message:  "Connection desynchronised",
		Detail:   "The server rejected this client. Reconnecting requires restarting the watch.",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
