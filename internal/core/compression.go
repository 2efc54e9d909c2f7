package core

import (
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMinSize skips gzip for small bodies such as single-source
// lookups and error envelopes.
const compressionMinSize = 1024

// CompressionMiddleware gzips responses for clients that send
// Accept-Encoding: gzip. Alert and water-source listings compress well.
func CompressionMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(compressionMinSize))
	if err != nil {
		// Only reachable with invalid options.
		logger.Error("gzip wrapper unavailable; serving uncompressed", "error", err)
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}
}
