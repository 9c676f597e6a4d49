// Package config provides configuration structures and utilities for
// taxocrawl. It defines the source, output and fetch settings of a crawl,
// the optional .taxocrawl YAML file and the XDG directories used for
// persistent state.
package config
