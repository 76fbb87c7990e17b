package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type ConsoleConfig struct {
	APIBaseURL string
	PlayerID   string
	Username   string
	Team       string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		PlayerID:   getEnv("PLAYER_ID", uuid.NewString()),
		Username:   getEnv("PLAYER_NAME", getEnv("USER", "operator")),
		Team:       os.Getenv("TEAM"),
		Timeout:    30 * time.Second,
	}

	client := &apiClient{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.APIBaseURL,
		playerID: cfg.PlayerID,
		username: cfg.Username,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ok := client.testConnection(ctx)
	cancel()
	if !ok {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	ui := NewConsoleUI(cfg, client)
	defer ui.stopEvents()

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
