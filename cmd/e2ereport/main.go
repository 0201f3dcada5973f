package main

import "github.com/Pochyxi/e2ereport/internal/cli"

func main() {
	cli.Execute()
}
