package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress   string
	OpenAIKey     string
	RealtimeURL   string
	RealtimeModel string
	PersonasFile  string
	MaxTurns      int
	HumanTimeout  time.Duration
	FrameDuration time.Duration
	SampleRate    int

	Personas []Persona
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - persona generation will not work")
	}

	realtimeURL := os.Getenv("REALTIME_URL")
	if realtimeURL == "" {
		realtimeURL = "wss://api.openai.com/v1/realtime"
	}
	realtimeModel := os.Getenv("REALTIME_MODEL")
	if realtimeModel == "" {
		realtimeModel = "gpt-4o-realtime-preview"
	}

	personasFile := os.Getenv("PERSONAS_FILE")
	personas, err := LoadPersonas(personasFile)
	if err != nil {
		log.Printf("Warning: could not load personas from %s (%v) - using the default roster", personasFile, err)
		personas = DefaultPersonas()
	}

	cfg := Config{
		HTTPAddress:   addr,
		OpenAIKey:     openAIKey,
		RealtimeURL:   realtimeURL,
		RealtimeModel: realtimeModel,
		PersonasFile:  personasFile,
		MaxTurns:      envInt("MAX_TURNS", 12),
		HumanTimeout:  time.Duration(envInt("HUMAN_TIMEOUT_SECONDS", 30)) * time.Second,
		FrameDuration: time.Duration(envInt("CHUNK_DURATION_MS", 655)) * time.Millisecond,
		SampleRate:    envInt("SAMPLE_RATE", 24000),
		Personas:      personas,
	}

	log.Printf("config: HTTP_ADDRESS=%s personas=%d max_turns=%d", cfg.HTTPAddress, len(cfg.Personas), cfg.MaxTurns)
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
