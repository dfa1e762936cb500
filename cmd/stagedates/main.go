package main

import (
	"context"

	"stagedates/cmd/stagedates/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
