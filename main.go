package main

import "github.com/awheeler/etrade-mcp/cmd"

func main() {
	cmd.Execute()
}
