package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("[Main] Fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
