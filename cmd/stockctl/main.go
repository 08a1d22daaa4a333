package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiebiao/stockmanagement/internal/interface/cli"
)

// version 由 -ldflags "-X main.version=..." 注入
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr, version, initializeApp)
	stop()
	os.Exit(code)
}
