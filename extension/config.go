package extension

import "time"

// Config holds the rampart extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.rampart" or "rampart" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for the admin API (default: "/rampart").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// RPCPath is where the WebSocket endpoint is mounted (default: "/rpc").
	RPCPath string `json:"rpc_path" mapstructure:"rpc_path" yaml:"rpc_path"`

	// CookieName is the session cookie name (default: "sessionid").
	CookieName string `json:"cookie_name" mapstructure:"cookie_name" yaml:"cookie_name"`

	// CookieDomain is set on issued session cookies.
	CookieDomain string `json:"cookie_domain" mapstructure:"cookie_domain" yaml:"cookie_domain"`

	// CookieSecure marks issued session cookies Secure.
	CookieSecure bool `json:"cookie_secure" mapstructure:"cookie_secure" yaml:"cookie_secure"`

	// Workers bounds concurrent identity lookups (default: 4).
	Workers int `json:"workers" mapstructure:"workers" yaml:"workers"`

	// GenericData enables the "db__<permission>" methods. Requires data
	// models to be registered with WithDataModels.
	GenericData bool `json:"generic_data" mapstructure:"generic_data" yaml:"generic_data"`

	// SessionTTL is the session lifetime (default: 14 days).
	SessionTTL time.Duration `json:"session_ttl" mapstructure:"session_ttl" yaml:"session_ttl"`

	// IdentityCacheTTL caches resolved identities for this long. Zero
	// disables the cache.
	IdentityCacheTTL time.Duration `json:"identity_cache_ttl" mapstructure:"identity_cache_ttl" yaml:"identity_cache_ttl"`

	// PurgeInterval is how often expired sessions are removed. Zero
	// disables the sweep.
	PurgeInterval time.Duration `json:"purge_interval" mapstructure:"purge_interval" yaml:"purge_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:      "/rampart",
		RPCPath:       "/rpc",
		CookieName:    "sessionid",
		Workers:       4,
		SessionTTL:    14 * 24 * time.Hour,
		PurgeInterval: time.Hour,
	}
}
