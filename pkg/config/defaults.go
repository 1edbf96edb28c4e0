package config

import (
	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/intercept"
	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
	"github.com/getmockd/mockgate/pkg/requestlog"
)

// DefaultPort is the default gateway port.
const DefaultPort = 8848

// DefaultMockRoot is the default module directory.
const DefaultMockRoot = "mockup"

// DefaultFileNames are searched in the working directory, in order.
var DefaultFileNames = []string{"mockgate.yaml", "mockgate.yml"}

// Default returns a Config holding the default values.
func Default() *Config {
	cfg := &Config{
		Port:         DefaultPort,
		MockRoot:     DefaultMockRoot,
		DataPrefix:   module.DefaultPrefix,
		UploadDir:    dispatch.DefaultUploadDir,
		UploadHeader: intercept.DefaultUploadHeader,
		MaxBodyBytes: reqctx.DefaultMaxBodyBytes,
		Reload: ReloadConfig{
			Policy: string(module.PolicyAlways),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics:    MetricsConfig{Enabled: true},
		RequestLog: RequestLogConfig{Enabled: true, Size: requestlog.DefaultCapacity},
		Sources:    make(map[string]string),
	}
	for _, key := range []string{
		"port", "mockRoot", "dataPrefix", "uploadDir", "uploadHeader", "maxBodyBytes",
		"reload.policy", "reload.watch", "log.level", "log.format", "metrics.enabled",
		"requestLog.enabled", "requestLog.size",
	} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}
