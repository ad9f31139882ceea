package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum multipart request size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// MultipartMemory is how much of a multipart body is kept in memory before
	// spilling file parts to disk
	MultipartMemory = 32 << 20
)

// Server timeouts
const (
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 5 * time.Minute // authentication scans large galleries
	DefaultIdleTimeout    = 60 * time.Second
	DefaultRequestTimeout = 2 * time.Minute
	ShutdownTimeout       = 30 * time.Second
)
