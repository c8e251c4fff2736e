package main

import (
	"smapi-profiles/cmd"
	"smapi-profiles/logger"

	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	defer logger.Sync() // Ensure logs are flushed on exit
	cmd.Execute()
}
