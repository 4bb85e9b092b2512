// Package cli implements the ianua-caldav command line interface.
//
// Two subcommands are provided: "serve" runs the feed server with periodic
// refresh, "scrape" performs a one-shot scrape and prints the extracted
// events.
package cli
