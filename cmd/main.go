package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"camcast/internal/camcast"
)

func main() {
	configPath := flag.String("config", camcast.DefaultConfigPath, "path to the YAML configuration file")
	flag.Parse()

	config, err := camcast.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	camcast.InitLogger(config)

	server, err := camcast.NewServer(config)
	if err != nil {
		slog.Error("Failed to create server", "err", err)
		os.Exit(1)
	}

	if err := server.Start(); err != nil {
		slog.Error("Failed to start server", "err", err)
		os.Exit(1)
	}

	slog.Info("RTSP server started", "addr", server.Addr(), "source", config.Source.Type)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down server", "signal", sig)

	server.Stop()
	slog.Info("Server shutdown complete")
}
