package logger

// LogDownload logs a media download attempt with standard fields
func LogDownload(platform, url string, success bool, err error) {
	log := GetLogger().WithFields(map[string]interface{}{
		"platform": platform,
		"url":      url,
		"success":  success,
	})
	if success {
		log.Debug("media downloaded")
		return
	}
	log.WithError(err).Warn("media download failed")
}

// LogItemSkipped logs a per-item extraction failure. Failed items are
// omitted from the result sequence and the run continues.
func LogItemSkipped(platform, url string, err error) {
	GetLogger().WithFields(map[string]interface{}{
		"platform": platform,
		"url":      url,
	}).WithError(err).Warn("item extraction failed, skipping")
}
