package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	os.Exit(execute())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
