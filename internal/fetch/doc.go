// Package fetch retrieves the taxonomy from the remote taxonomy service.
//
// A fetch is a single HTTP GET with HTTP Basic authentication. The
// response body is decoded as UTF-8 (a leading byte order mark is dropped)
// and parsed as a JSON array of terms, each possibly carrying nested
// related terms of the same shape. There are no retries: any failure is
// returned to the caller, which treats it as "no data".
package fetch
