package logger

// LogScroll logs one pagination iteration.
func LogScroll(scroll, height, itemCount, noGrowth int) {
	GetLogger().DebugWithFields("Scroll iteration", map[string]interface{}{
		"scroll":     scroll,
		"height":     height,
		"item_count": itemCount,
		"no_growth":  noGrowth,
	})
}

// LogExpansion logs the outcome of a composite expansion.
func LogExpansion(permalink string, fragments int, err error) {
	fields := map[string]interface{}{
		"permalink": permalink,
		"fragments": fragments,
	}
	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Warn("Thread expansion failed, keeping collected fragments")
		return
	}
	l.Info("Thread expanded")
}

// LogDedup logs the partition produced by the deduplication index.
func LogDedup(username string, fresh, duplicates int) {
	GetLogger().InfoWithFields("Duplicate filtering complete", map[string]interface{}{
		"username":   username,
		"fresh":      fresh,
		"duplicates": duplicates,
	})
}
