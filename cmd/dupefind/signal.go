package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a channel that is closed on SIGINT, SIGTERM or SIGPIPE
func setupSignalHandler(stderr io.Writer) <-chan struct{} {
	shutdown := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(stderr, "\nReceived signal: %v\n", sig)
		close(shutdown)
		signal.Stop(sigChan)

		// a closed pipe only means nobody is reading the report any more
		if sig != syscall.SIGPIPE {
			fmt.Fprintf(stderr, "Stopping after the current file...\n")
		}
	}()

	return shutdown
}
