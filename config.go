package rampart

// Config holds configuration for the rampart engine.
type Config struct {
	// CookieName is the cookie carrying the session token.
	// Defaults to "sessionid".
	CookieName string `json:"cookie_name,omitempty"`

	// CookieDomain is set on issued session cookies. Empty means host-only.
	CookieDomain string `json:"cookie_domain,omitempty"`

	// CookieSecure marks issued session cookies Secure.
	CookieSecure bool `json:"cookie_secure,omitempty"`

	// Workers bounds how many identity lookups run at once.
	// Defaults to 4.
	Workers int `json:"workers,omitempty"`

	// GenericData synthesizes "db__<permission>" methods for the data
	// actions an identity holds. Requires a DataDispatcher.
	GenericData bool `json:"generic_data,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CookieName: "sessionid",
		Workers:    4,
	}
}

func (c Config) cookieName() string {
	if c.CookieName == "" {
		return "sessionid"
	}
	return c.CookieName
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}
