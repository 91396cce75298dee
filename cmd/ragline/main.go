// Command ragline is an interactive retrieval-augmented chat shell.
// It indexes the files given on the command line into an in-memory
// knowledge base and answers questions about them, streaming tokens
// as they arrive.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ragline/ragline"
	"github.com/ragline/ragline/agent"
	"github.com/ragline/ragline/config"
	"github.com/ragline/ragline/kb"
	"github.com/ragline/ragline/provider/anthropic"
	"github.com/ragline/ragline/provider/echo"
	"github.com/ragline/ragline/rag/chunking"
	"github.com/ragline/ragline/rag/store"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ragline:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ragline:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	model, err := newModel(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ragline:", err)
		os.Exit(1)
	}

	memStore := store.NewMemoryStore()
	base := kb.New(memStore,
		kb.WithChunker(chunking.NewFixedSizeChunker(cfg.ChunkSize, cfg.ChunkSize/10)),
		kb.WithLogger(logger),
	)

	ctx := context.Background()
	for _, path := range flag.Args() {
		if err := indexFile(ctx, base, path); err != nil {
			fmt.Fprintln(os.Stderr, "ragline: index:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("knowledge base ready (%d chunks)\n", base.Count())

	opts := []agent.Option{
		agent.WithStepBudget(cfg.StepBudget),
		agent.WithTopK(cfg.TopK),
		agent.WithScoreThreshold(cfg.ScoreThreshold),
		agent.WithLogger(logger),
	}
	if cfg.RewriteEnabled {
		opts = append(opts, agent.WithRewrite())
	}
	orch := agent.NewOrchestrator(model, memStore, opts...)

	sessions := agent.NewSessionManager(cfg.MemoryCapacity)
	sessionID := sessions.Create()
	memory, _ := sessions.Get(sessionID)

	repl(ctx, orch, base, sessions, sessionID, memory)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func newModel(cfg *config.Config) (ragline.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.New(cfg.APIKey,
			anthropic.WithModel(cfg.ModelName),
			anthropic.WithMaxTokens(cfg.MaxTokens),
			anthropic.WithTemperature(cfg.Temperature),
		)
	default:
		return echo.New(), nil
	}
}

func indexFile(ctx context.Context, base *kb.KnowledgeBase, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = base.AddDocument(ctx, filepath.Base(path), string(data), nil)
	return err
}

func repl(ctx context.Context, orch *agent.Orchestrator, base *kb.KnowledgeBase, sessions *agent.SessionManager, sessionID string, memory *agent.ConversationMemory) {
	fmt.Println(`type a question, or "/help" for commands`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, line, base, sessions, sessionID); quit {
				return
			}
			continue
		}

		stream := orch.StreamTurn(ctx, line, memory)
		for stream.Next() {
			chunk, err := stream.Current()
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				break
			}
			fmt.Print(chunk)
		}
		stream.Close()
		fmt.Println()
		if final := stream.Final(); final != nil && final.Err != "" {
			fmt.Println("turn failed:", final.Err)
		}
	}
}

// command handles a slash command and reports whether the shell should
// exit.
func command(ctx context.Context, line string, base *kb.KnowledgeBase, sessions *agent.SessionManager, sessionID string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := sessions.Clear(sessionID); err != nil {
			fmt.Println("clear:", err)
		} else {
			fmt.Println("conversation cleared")
		}
	case "/index":
		if len(fields) < 2 {
			fmt.Println("usage: /index <file>")
			break
		}
		if err := indexFile(ctx, base, fields[1]); err != nil {
			fmt.Println("index:", err)
		} else {
			fmt.Printf("indexed, %d chunks total\n", base.Count())
		}
	case "/stats":
		fmt.Printf("chunks: %d  sources: %d\n", base.Count(), len(base.Sources()))
	case "/help":
		fmt.Println("/index <file>  add a file to the knowledge base")
		fmt.Println("/stats         show knowledge base size")
		fmt.Println("/clear         forget the conversation so far")
		fmt.Println("/quit          exit")
	default:
		fmt.Println("unknown command:", fields[0])
	}
	return false
}
