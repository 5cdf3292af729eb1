package main

import (
	"flag"
	"log"
	"strings"

	"github.com/himanishpuri/SampleSensei/internal/config"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

var (
	configFile     string
	port           int
	allowedOrigins string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Path to config file")
	flag.IntVar(&port, "port", 0, "HTTP server port (default: server.port)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if lvl, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logger.SetLevel(lvl)
	}

	if port != 0 {
		cfg.Server.Port = port
	}
	origins := cfg.Server.Origins
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := sensei.NewService(sensei.FromConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:           cfg.Server.Port,
		IndexPath:      cfg.Index.Path,
		Store:          cfg.Index.Store,
		SampleRate:     cfg.Synth.SampleRate,
		AllowedOrigins: origins,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
