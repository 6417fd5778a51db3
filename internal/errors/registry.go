package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (S100-S199)

	"S101": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'storyapp init' to create storyapp.json",
	},
	"S102": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "storyapp.json could not be read or parsed.",
		Suggestion: "Check that storyapp.json is valid JSON",
	},
	"S103": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "The server port must be between 0 and 65535.",
	},
	"S104": {
		Category:   CategoryConfig,
		Message:    "Unknown store backend",
		Detail:     "The offline store backend must be memory, redis or postgres.",
		Suggestion: `Set "store": {"backend": "memory"} for a single instance`,
	},
	"S105": {
		Category:   CategoryConfig,
		Message:    "Unknown photo backend",
		Detail:     "The photo backend must be disk or s3.",
		Suggestion: `Set "photos": {"backend": "disk"} to keep uploads on local disk`,
	},
	"S106": {
		Category: CategoryConfig,
		Message:  "Missing backend setting",
		Detail:   "The selected backend needs a connection setting that is empty.",
	},
	"S107": {
		Category:   CategoryConfig,
		Message:    "Invalid duration",
		Detail:     "Durations use Go syntax, such as 150ms, 30s or 5m.",
		Suggestion: "Quote the value and include a unit",
	},
	"S108": {
		Category:   CategoryConfig,
		Message:    "Invalid API base URL",
		Detail:     "The story API base URL must be an absolute http or https URL.",
		Suggestion: `Set "api": {"baseURL": "https://story-api.dicoding.dev/v1"}`,
	},
	"S109": {
		Category: CategoryConfig,
		Message:  "Invalid log setting",
		Detail:   "The log level must be debug, info, warn or error and the format text or json.",
	},
	"S110": {
		Category:   CategoryConfig,
		Message:    "Configuration file already exists",
		Suggestion: "Use --force to overwrite it",
	},
	"S111": {
		Category:   CategoryConfig,
		Message:    "Invalid photo size limit",
		Detail:     "photos.maxSize must be between 0 and the story API's limit of 1 MiB.",
		Suggestion: `Set "photos": {"maxSize": 1048576} or remove the setting`,
	},

	// Storage (S200-S299)

	"S201": {
		Category:   CategoryStorage,
		Message:    "Redis connection failed",
		Detail:     "The Redis server did not answer a ping.",
		Suggestion: "Check store.redisAddr and that Redis is running",
	},
	"S202": {
		Category:   CategoryStorage,
		Message:    "Postgres connection failed",
		Suggestion: "Check store.postgresDSN and that Postgres is reachable",
	},
	"S203": {
		Category: CategoryStorage,
		Message:  "Photo storage unavailable",
		Detail:   "The photo upload directory or bucket could not be opened.",
	},

	// Server (S300-S399)

	"S301": {
		Category:   CategoryServer,
		Message:    "Server failed",
		Detail:     "The HTTP server stopped with an error.",
		Suggestion: "Check that the address is free and you may bind to it",
	},

	// CLI (S400-S499)

	"S401": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
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

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
