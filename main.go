package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fzft/go-resp3/cmd"
	"github.com/fzft/go-resp3/log"
	"go.uber.org/zap"
)

func main() {
	cli := cmd.NewCli(os.Stdin, os.Stdout, os.Stderr, buildInfo())
	if err := cli.ParseOptions(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.ProgramName, err)
		os.Exit(2)
	}
	if err := log.InitLogger(cli.LogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: init logger: %v\n", cmd.ProgramName, err)
		os.Exit(2)
	}
	cli.LogStartup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx)
	stop()
	if code != 0 {
		log.Logger.Debug("exiting", zap.Int("status", code))
	}
	_ = log.Logger.Sync()
	os.Exit(code)
}
