package main

import (
	"context"
	"fmt"
	"os"

	"deskvox/internal/ipc"
)

func main() {
	root := newRootCmd(ipc.Send)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
