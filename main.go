package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"redmatch_server/routes"
	"redmatch_server/services"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	development := os.Getenv("APP_ENV") == "development"

	// Select the analysis store: DynamoDB when a table is configured,
	// otherwise the no-op store (no caching, no history).
	var store services.AnalysisStore
	tableName := os.Getenv("ANALYSES_TABLE")
	if tableName == "" {
		log.Println("ANALYSES_TABLE not set; running without analysis cache or history")
		store = services.NewNoopAnalysisStore()
	} else {
		log.Println("Initializing DynamoDB client...")
		dynamoClient, err := services.InitializeDynamoDBClient()
		if err != nil {
			log.Printf("DynamoDB unavailable (%v); running without analysis cache or history", err)
			store = services.NewNoopAnalysisStore()
		} else {
			store = services.NewDynamoAnalysisStore(&services.DynamoService{Client: dynamoClient}, tableName)
			log.Printf("DynamoDB client initialized, table %s.", tableName)
		}
	}

	// Initialize Services
	redditService := services.NewRedditService(
		os.Getenv("REDDIT_CLIENT_ID"),
		os.Getenv("REDDIT_CLIENT_SECRET"),
		os.Getenv("REDDIT_USER_AGENT"),
	)
	geminiService, err := services.NewGeminiService(context.Background(), os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Printf("Gemini unavailable: %v", err)
	}
	samplerService := services.NewSamplerService(time.Now().UnixNano())
	analysisService := services.NewAnalysisService(redditService, geminiService, samplerService, store)
	rateLimiter := services.NewRateLimitService(envInt("RATE_LIMIT_MAX", services.DefaultRateLimitMax),
		time.Duration(envInt("RATE_LIMIT_WINDOW_MS", int(services.DefaultRateLimitWindow.Milliseconds())))*time.Millisecond)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Redmatch")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterAnalysisRoutes(r, analysisService, rateLimiter, store, development)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

// envInt reads an integer environment variable, falling back on absence or a
// parse failure.
func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return parsed
}
