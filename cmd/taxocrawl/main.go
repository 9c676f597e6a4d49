// Package main provides the entry point for the taxocrawl CLI.
//
// taxocrawl downloads a taxonomy from an authenticated JSON endpoint,
// flattens it into dimension nodes and writes the external dimensions XML
// file consumed by the search indexer. The previous file is kept as a
// timestamped backup and restored when writing fails.
//
// Usage:
//
//	taxocrawl crawl --url <endpoint> -o <dir> -f <file> -d <dimension>
//	taxocrawl backups -o <dir> -f <file>
//	taxocrawl history
//
// See --help for all available options.
package main

// main is the entry point for taxocrawl.
func main() {
	Execute()
}
