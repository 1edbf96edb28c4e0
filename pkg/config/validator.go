package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/getmockd/mockgate/pkg/intercept"
	"github.com/getmockd/mockgate/pkg/module"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

var validLogFormats = map[string]bool{"text": true, "json": true}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Port < 0 || c.Port > 65535 {
		add("port", "must be between 0 and 65535, got %d", c.Port)
	}
	if c.MockRoot == "" {
		add("mockRoot", "is required")
	}
	if !strings.HasPrefix(c.DataPrefix, "/") {
		add("dataPrefix", "must start with /, got %q", c.DataPrefix)
	}
	if c.UploadDir == "" {
		add("uploadDir", "is required")
	}
	if c.UploadHeader == "" {
		add("uploadHeader", "is required")
	}
	if c.MaxBodyBytes <= 0 {
		add("maxBodyBytes", "must be positive, got %d", c.MaxBodyBytes)
	}
	if c.Backend != "" {
		u, err := url.Parse(c.Backend)
		switch {
		case err != nil:
			add("backend", "%v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			add("backend", "must be an http or https URL, got %q", c.Backend)
		case u.Host == "":
			add("backend", "missing host in %q", c.Backend)
		}
	}
	if c.RequestLog.Enabled && c.RequestLog.Size <= 0 {
		add("requestLog.size", "must be positive, got %d", c.RequestLog.Size)
	}
	if _, err := c.Intercept.Compile(); err != nil {
		add("intercept", "%v", err)
	}
	for i, p := range c.Pages {
		if p.Location == "" {
			add(fmt.Sprintf("pages[%d].location", i), "is required")
			continue
		}
		if _, err := intercept.Page(p.Location); err != nil {
			add(fmt.Sprintf("pages[%d].location", i), "%v", err)
		}
	}
	if _, err := module.ParsePolicy(c.Reload.Policy); err != nil {
		add("reload.policy", "%v", err)
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "unknown level %q", c.Log.Level)
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		add("log.format", "unknown format %q", c.Log.Format)
	}
	return errors.Join(errs...)
}

// Compile parses the rules into an intercept.Config.
func (ic InterceptConfig) Compile() (*intercept.Config, error) {
	return intercept.NewConfig(ic.WhiteList, ic.BlackList)
}
