package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"marketpulse/internal/bootstrap"
	"marketpulse/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run the analysis for the configured tickers once and print the reports")
	flag.Parse()

	c := bootstrap.NewContainer()
	c.MustInit()
	defer logger.Sync()

	if *once {
		err := c.RunOnce(c.Context, os.Stdout)
		c.Shutdown()
		if err != nil {
			c.Log.Errorw("Analysis failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := c.Start(); err != nil {
		c.Log.Errorw("Failed to start", "error", err)
		c.Shutdown()
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	c.Log.Infow("Shutdown signal received", "signal", sig.String())

	c.Shutdown()
}
