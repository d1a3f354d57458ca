package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"finbook/internal/categorize"
	"finbook/internal/finance"
	"finbook/internal/recognize"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("finbook")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "finbook.db", "Database file path")
		storagePath = fs.StringLong("storage", "./attachments", "Attachment storage directory")
		visionKey   = fs.StringLong("vision-key", "", "Google Cloud Vision API key (or set GOOGLE_VISION_API_KEY env var)")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		openaiKey   = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel = fs.StringLong("openai-model", "gpt-4o", "OpenAI model name for image recognition")
		gptModel    = fs.StringLong("categorizer-model", "gpt-4o-mini", "OpenAI model name for category suggestions")
		timeout     = fs.DurationLong("backend-timeout", 60*time.Second, "Per-backend recognition timeout")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FINBOOK"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := finance.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := finance.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Resolve API keys from flags or environment
	vKey := keyOr(*visionKey, "GOOGLE_VISION_API_KEY")
	gKey := keyOr(*geminiKey, "GEMINI_API_KEY")
	oKey := keyOr(*openaiKey, "OPENAI_API_KEY")

	// Build the recognition chain. The text parser always runs first;
	// remote backends that lack an API key report themselves unavailable
	// and are skipped at request time.
	chain := recognize.NewChain(*timeout, slog.Default(),
		recognize.NewTextParser(),
		recognize.NewGoogleVision(vKey),
		recognize.NewGemini(gKey, *geminiModel),
		recognize.NewOpenAI(oKey, *openaiModel),
	)
	slog.Info("Recognition backends configured",
		"vision", vKey != "", "gemini", gKey != "", "openai", oKey != "")

	suggester := categorize.NewOpenAISuggester(oKey, *gptModel)

	// Initialize service
	service := finance.NewService(db, store, chain, suggester)
	if err := service.SeedDefaultCategories(); err != nil {
		slog.Error("Failed to seed default categories", "error", err)
		os.Exit(1)
	}

	// Initialize server
	basicAuth := finance.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := finance.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func keyOr(flagValue, envVar string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envVar)
}
