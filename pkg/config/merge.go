package config

// Merge copies the non-zero values of source into target and records
// sourceType for every key it sets.
func Merge(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}
	set := func(key string) { target.Sources[key] = sourceType }

	if source.Port != 0 {
		target.Port = source.Port
		set("port")
	}
	if source.MockRoot != "" {
		target.MockRoot = source.MockRoot
		set("mockRoot")
	}
	if source.DataPrefix != "" {
		target.DataPrefix = source.DataPrefix
		set("dataPrefix")
	}
	if source.UploadDir != "" {
		target.UploadDir = source.UploadDir
		set("uploadDir")
	}
	if source.UploadURL != "" {
		target.UploadURL = source.UploadURL
		set("uploadUrl")
	}
	if source.UploadHeader != "" {
		target.UploadHeader = source.UploadHeader
		set("uploadHeader")
	}
	if source.Backend != "" {
		target.Backend = source.Backend
		set("backend")
	}
	if source.MaxBodyBytes != 0 {
		target.MaxBodyBytes = source.MaxBodyBytes
		set("maxBodyBytes")
	}
	if len(source.Intercept.WhiteList) > 0 {
		target.Intercept.WhiteList = append([]string(nil), source.Intercept.WhiteList...)
		set("intercept.whiteList")
	}
	if len(source.Intercept.BlackList) > 0 {
		target.Intercept.BlackList = append([]string(nil), source.Intercept.BlackList...)
		set("intercept.blackList")
	}
	if len(source.Pages) > 0 {
		target.Pages = append([]PageRoute(nil), source.Pages...)
		set("pages")
	}
	if source.Reload.Policy != "" {
		target.Reload.Policy = source.Reload.Policy
		set("reload.policy")
	}
	if boolIsSet(source, "reload.watch", source.Reload.Watch) {
		target.Reload.Watch = source.Reload.Watch
		set("reload.watch")
	}
	if source.Log.Level != "" {
		target.Log.Level = source.Log.Level
		set("log.level")
	}
	if source.Log.Format != "" {
		target.Log.Format = source.Log.Format
		set("log.format")
	}
	if source.Log.File != "" {
		target.Log.File = source.Log.File
		set("log.file")
	}
	if len(source.CORS.Origins) > 0 {
		target.CORS.Origins = append([]string(nil), source.CORS.Origins...)
		set("cors.origins")
	}
	if boolIsSet(source, "metrics.enabled", source.Metrics.Enabled) {
		target.Metrics.Enabled = source.Metrics.Enabled
		set("metrics.enabled")
	}
	if boolIsSet(source, "requestLog.enabled", source.RequestLog.Enabled) {
		target.RequestLog.Enabled = source.RequestLog.Enabled
		set("requestLog.enabled")
	}
	if source.RequestLog.Size != 0 {
		target.RequestLog.Size = source.RequestLog.Size
		set("requestLog.size")
	}
}

// boolIsSet reports whether a boolean was explicitly present in source.
// Programmatic configs carry no record, so only true counts as set.
func boolIsSet(source *Config, key string, value bool) bool {
	if source.setFields != nil {
		return source.setFields[key]
	}
	return value
}

// MarkSet records key as explicitly set, so that Merge copies a false
// boolean too.
func (c *Config) MarkSet(key string) {
	if c.setFields == nil {
		c.setFields = make(map[string]bool)
	}
	c.setFields[key] = true
}
