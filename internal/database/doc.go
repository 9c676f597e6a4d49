// Package database provides SQLite-based storage for taxocrawl.
//
// The HistoryDB records every crawl run: which dimension was crawled from
// which endpoint, how it ended, what was archived or restored and the
// checksum of the file that was written. The history command reads it back.
//
// The database is a single CGO-free SQLite file (modernc.org/sqlite) in the
// XDG data directory.
package database
