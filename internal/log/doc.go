// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a credential (password, authorization, ...)
//   - values that look like HTTP Basic or Bearer authorization headers
//   - the password part of URLs carrying user information
//
// Even in verbose mode, credentials are masked so that crawl logs can be
// shared with the taxonomy service operators.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("fetching taxonomy",
//	    "url", "https://crawler:pw@taxonomy.example.com/api", // password masked
//	    "password", cfg.Password,                             // value masked
//	)
package log
