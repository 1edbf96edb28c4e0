package config

// Config is the complete mockgate configuration.
type Config struct {
	// Port the gateway listens on.
	Port int `yaml:"port" json:"port"`

	// MockRoot is the directory holding module definitions.
	MockRoot string `yaml:"mockRoot" json:"mockRoot"`

	// DataPrefix is the data namespace stripped from request paths.
	DataPrefix string `yaml:"dataPrefix" json:"dataPrefix"`

	// UploadDir receives uploaded files; UploadURL is the path it is served
	// under (derived from UploadDir when empty).
	UploadDir string `yaml:"uploadDir" json:"uploadDir"`
	UploadURL string `yaml:"uploadUrl,omitempty" json:"uploadUrl,omitempty"`

	// UploadHeader carries the upload path of upload requests.
	UploadHeader string `yaml:"uploadHeader" json:"uploadHeader"`

	// Backend is the URL non-intercepted requests are proxied to. Empty
	// answers them with 404.
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`

	// MaxBodyBytes bounds buffered request bodies.
	MaxBodyBytes int64 `yaml:"maxBodyBytes" json:"maxBodyBytes"`

	Intercept InterceptConfig `yaml:"intercept" json:"intercept"`
	Pages     []PageRoute     `yaml:"pages,omitempty" json:"pages,omitempty"`
	Reload    ReloadConfig    `yaml:"reload" json:"reload"`
	Log       LogConfig       `yaml:"log" json:"log"`
	CORS      CORSConfig      `yaml:"cors" json:"cors"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`

	RequestLog RequestLogConfig `yaml:"requestLog" json:"requestLog"`

	// Sources tracks where each value came from.
	Sources map[string]string `yaml:"-" json:"-"`

	// setFields records booleans explicitly present in a file, so that an
	// explicit false can override a default.
	setFields map[string]bool
}

// InterceptConfig holds whitelist and blacklist rules in intercept.ParseRule
// syntax.
type InterceptConfig struct {
	WhiteList []string `yaml:"whiteList,omitempty" json:"whiteList,omitempty"`
	BlackList []string `yaml:"blackList,omitempty" json:"blackList,omitempty"`
}

// PageRoute is one HTML page route.
type PageRoute struct {
	Location string `yaml:"location" json:"location"`
}

// ReloadConfig controls module reloading.
type ReloadConfig struct {
	// Policy is "always" or "modtime".
	Policy string `yaml:"policy" json:"policy"`
	// Watch evicts cached modules when their files change.
	Watch bool `yaml:"watch" json:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// CORSConfig enables CORS for the listed origins.
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty" json:"origins,omitempty"`
}

// MetricsConfig toggles the metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// RequestLogConfig controls the history of dispatched requests served on
// the requests endpoint.
type RequestLogConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Size is the number of entries kept.
	Size int `yaml:"size" json:"size"`
}

// Value sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)
