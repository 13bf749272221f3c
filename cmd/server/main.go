package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"arcade/internal/archive"
	"arcade/internal/cluster"
	"arcade/internal/network"
	"arcade/internal/session"

	"github.com/joho/godotenv"
)

type config struct {
	ListenAddr  string
	ServiceName string
	ServicePort int
	ConsulAddr  string
	NatsURL     string
}

func loadConfig() config {
	// A missing .env is fine, the environment wins anyway.
	_ = godotenv.Load()

	cfg := config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		ServiceName: getEnv("SERVICE_NAME", "arcade-server"),
		ServicePort: getEnvInt("SERVICE_PORT", 8080),
		ConsulAddr:  os.Getenv("CONSUL_HTTP_ADDR"),
		NatsURL:     os.Getenv("NATS_URL"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Main] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func main() {
	cfg := loadConfig()
	log.Printf("[Main] starting %s on %s", cfg.ServiceName, cfg.ListenAddr)

	recorder := archive.Connect(cfg.NatsURL)

	handler := session.NewHandler(recorder, nil, nil)
	server := network.NewServer(handler)
	handler.Bind(server.Hub().Do)

	if err := cluster.RegisterService(cfg.ConsulAddr, cfg.ServiceName, cfg.ServicePort, cfg.ServicePort); err != nil {
		// Consul being down should not keep players from playing.
		log.Printf("[Main] consul registration failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", cluster.NewBasicHealthHandler())

	if err := server.Listen(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("[Main] server stopped: %v", err)
	}
}
