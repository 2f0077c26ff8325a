package config

const (
	// Storage errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrInitializingPosts     = "Error initializing posts"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
	ErrCreateTempFileFmt     = "Failed to create temp file: %v"
)
