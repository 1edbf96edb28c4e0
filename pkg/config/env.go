package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "MOCKGATE_"

// ApplyEnv overrides cfg with MOCKGATE_* variables found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}
	str := func(name, key string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
			cfg.Sources[key] = SourceEnv
		}
	}
	list := func(name, key string, dst *[]string) {
		if v, ok := get(name); ok {
			*dst = splitList(v)
			cfg.Sources[key] = SourceEnv
		}
	}
	boolean := func(name, key string, dst *bool) error {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
			cfg.Sources[key] = SourceEnv
		}
		return nil
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		cfg.Port = port
		cfg.Sources["port"] = SourceEnv
	}
	if v, ok := get("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", EnvPrefix, err)
		}
		cfg.MaxBodyBytes = n
		cfg.Sources["maxBodyBytes"] = SourceEnv
	}
	if v, ok := get("REQUEST_LOG_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_LOG_SIZE: %w", EnvPrefix, err)
		}
		cfg.RequestLog.Size = n
		cfg.Sources["requestLog.size"] = SourceEnv
	}

	str("MOCK_ROOT", "mockRoot", &cfg.MockRoot)
	str("DATA_PREFIX", "dataPrefix", &cfg.DataPrefix)
	str("UPLOAD_DIR", "uploadDir", &cfg.UploadDir)
	str("UPLOAD_URL", "uploadUrl", &cfg.UploadURL)
	str("UPLOAD_HEADER", "uploadHeader", &cfg.UploadHeader)
	str("BACKEND", "backend", &cfg.Backend)
	str("RELOAD_POLICY", "reload.policy", &cfg.Reload.Policy)
	str("LOG_LEVEL", "log.level", &cfg.Log.Level)
	str("LOG_FORMAT", "log.format", &cfg.Log.Format)
	str("LOG_FILE", "log.file", &cfg.Log.File)
	list("WHITELIST", "intercept.whiteList", &cfg.Intercept.WhiteList)
	list("BLACKLIST", "intercept.blackList", &cfg.Intercept.BlackList)
	list("CORS_ORIGINS", "cors.origins", &cfg.CORS.Origins)

	if err := boolean("RELOAD_WATCH", "reload.watch", &cfg.Reload.Watch); err != nil {
		return err
	}
	if err := boolean("METRICS", "metrics.enabled", &cfg.Metrics.Enabled); err != nil {
		return err
	}
	return boolean("REQUEST_LOG", "requestLog.enabled", &cfg.RequestLog.Enabled)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
