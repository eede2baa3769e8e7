package cataloro

import "time"

// ProbeConfig is the system-level configuration. It is parsed from a json
// file, any zero field falls back to Defaults.
type ProbeConfig struct {
	BaseURL string `json:"base_url"`
	Port    string `json:"port"`

	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	BuyerEmail     string `json:"buyer_email"`
	BuyerPassword  string `json:"buyer_password"`
	SellerEmail    string `json:"seller_email"`
	SellerPassword string `json:"seller_password"`
	// TOTPSecret enables the second factor on the admin login when set.
	TOTPSecret string `json:"totp_secret"`

	TimeoutSeconds  int `json:"timeout_seconds"`
	ConsistencyWait int `json:"consistency_wait_seconds"`
	PollIntervalMs  int `json:"poll_interval_ms"`

	LatencyWorkers     int     `json:"latency_workers"`
	LatencyRequests    int     `json:"latency_requests"`
	LatencyBudgetMs    int     `json:"latency_budget_ms"`
	LatencyErrorBudget float64 `json:"latency_error_budget"`

	DatabasePath string `json:"database_path"`
	RedisAddr    string `json:"redis_addr"`
	AdminKey     string `json:"admin_key"`

	// UseMock runs the checks against the built-in mock backend instead of
	// a live deployment.
	UseMock bool `json:"use_mock"`
	// JWTSecret signs the mock backend tokens.
	JWTSecret string `json:"jwt_secret"`
}

// Defaults populates unset fields. The fallbacks mirror the standard
// staging deployment.
func (c *ProbeConfig) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Port == "" {
		c.Port = "8090"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@cataloro.com"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin123"
	}
	if c.BuyerEmail == "" {
		c.BuyerEmail = "buyer@cataloro.com"
	}
	if c.BuyerPassword == "" {
		c.BuyerPassword = "buyer123"
	}
	if c.SellerEmail == "" {
		c.SellerEmail = "seller@cataloro.com"
	}
	if c.SellerPassword == "" {
		c.SellerPassword = "seller123"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.ConsistencyWait == 0 {
		c.ConsistencyWait = 10
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 500
	}
	if c.LatencyWorkers == 0 {
		c.LatencyWorkers = 5
	}
	if c.LatencyRequests == 0 {
		c.LatencyRequests = 20
	}
	if c.LatencyBudgetMs == 0 {
		c.LatencyBudgetMs = 1500
	}
	if c.LatencyErrorBudget == 0 {
		c.LatencyErrorBudget = 0.05
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "probe.db"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "cataloro-probe-secret"
	}
}

func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ProbeConfig) ConsistencyTimeout() time.Duration {
	return time.Duration(c.ConsistencyWait) * time.Second
}

func (c ProbeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
