package main

import "ianua-caldav/internal/cli"

func main() {
	cli.Execute()
}
