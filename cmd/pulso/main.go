// Package main is the entry point for the persona conversation orchestrator.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vozlabs/pulso/internal/config"
	"github.com/vozlabs/pulso/internal/engage"
	"github.com/vozlabs/pulso/internal/gateway"
	"github.com/vozlabs/pulso/internal/guard"
	"github.com/vozlabs/pulso/internal/ledger"
	"github.com/vozlabs/pulso/internal/memory"
	"github.com/vozlabs/pulso/internal/models"
	"github.com/vozlabs/pulso/internal/persona"
	"github.com/vozlabs/pulso/internal/room"
	"github.com/vozlabs/pulso/internal/scheduler"
	"github.com/vozlabs/pulso/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := persona.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load persona catalog: %v", err)
	}

	monitor := make(map[string]bool, len(cfg.MonitorProviders))
	for _, name := range cfg.MonitorProviders {
		monitor[name] = true
	}

	var providers []models.Provider
	gemini, err := models.NewGeminiProvider(ctx, "gemini", cfg.LLMModel, cfg.GoogleAPIKey, !monitor["gemini"])
	if err != nil {
		log.Fatalf("failed to create gemini provider: %v", err)
	}
	providers = append(providers, gemini)
	if cfg.XAIAPIKey != "" {
		grok, err := models.NewXAIProvider("grok", cfg.XAIModel, cfg.XAIAPIKey, !monitor["grok"])
		if err != nil {
			log.Fatalf("failed to create xai provider: %v", err)
		}
		providers = append(providers, grok)
	}
	if cfg.OpenAIAPIKey != "" {
		oa, err := models.NewOpenAIProvider("openai", cfg.OpenAIModel, cfg.OpenAIAPIKey, !monitor["openai"])
		if err != nil {
			log.Fatalf("failed to create openai provider: %v", err)
		}
		providers = append(providers, oa)
	}
	providerSet := models.NewSet(cfg.ProviderTimeout, providers...)

	registry := persona.NewRegistry(catalog, providerSet.VisibleNames(),
		cfg.ActiveFractionMin, cfg.ActiveFractionMax, cfg.ActiveFloor, time.Now().UnixNano())

	validator, err := gateway.NewRegexValidator()
	if err != nil {
		log.Fatalf("failed to build content validator: %v", err)
	}
	gw := gateway.New(providerSet, gateway.NewBuilder(cfg.HistoryLimit), validator, cfg.PolicyRetries)

	var msgStore store.MessageStore
	var memories *memory.Service
	devMode := cfg.DatabaseURL == ""
	if !devMode {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer func() {
			if err := pg.Close(); err != nil {
				slog.Warn("failed to close database", "error", err)
			}
		}()
		msgStore = pg

		embedder, err := memory.NewEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		memories = memory.NewService(embedder, memory.NewPostgresRepo(pg.DB()),
			cfg.MemoryTopK, cfg.SimilarityThreshold)
	} else {
		slog.Warn("DATABASE_URL not set, messages stay in process memory")
		msgStore = &echoStore{next: store.NewInMemoryStore()}
	}

	engine := scheduler.New(scheduler.Config{
		PulseMin:            cfg.PulseMin,
		PulseMax:            cfg.PulseMax,
		StaggerMin:          cfg.StaggerMin,
		StaggerMax:          cfg.StaggerMax,
		MentionReplyMin:     cfg.MentionReplyMin,
		MentionReplyMax:     cfg.MentionReplyMax,
		GreetFirstReplyMin:  cfg.GreetFirstReplyMin,
		GreetFirstReplyMax:  cfg.GreetFirstReplyMax,
		GreetSecondReplyMin: cfg.GreetSecondReplyMin,
		GreetSecondReplyMax: cfg.GreetSecondReplyMax,
		UrgentReplyDelay:    cfg.UrgentReplyDelay,
		NormalReplyDelay:    cfg.NormalReplyDelay,
		PresenceUpperBound:  cfg.PresenceUpperBound,
		RotationInterval:    cfg.RotationInterval,
		AmbientCharLimit:    cfg.AmbientCharLimit,
		AmbientWordLimit:    cfg.AmbientWordLimit,
		DirectCharLimit:     cfg.DirectCharLimit,
		DirectWordLimit:     cfg.DirectWordLimit,
	}, scheduler.Deps{
		Registry: registry,
		Rooms:    room.NewRegistry(cfg.HistoryLimit, cfg.RecentSpeakers),
		Guard: guard.New(guard.Config{
			DedupWindow:         cfg.DedupWindow,
			BurstWindow:         cfg.BurstWindow,
			PenaltyWindow:       cfg.PenaltyWindow,
			MinSendDelay:        cfg.MinSendDelay,
			OwnSimilarity:       cfg.OwnSimilarity,
			BurstSimilarity:     cfg.BurstSimilarity,
			SaturationWindow:    cfg.SaturationWindow,
			SaturationThreshold: cfg.SaturationThreshold,
			Keywords:            catalog.Keywords,
		}),
		Topics:    ledger.NewTopicLedger(catalog.Topics, cfg.TopicCooldown),
		Greetings: ledger.NewGreetingLedger(cfg.GreetingLimit, cfg.GreetingWindow),
		Engage:    engage.NewTracker(),
		Analyzer:  engage.NewAnalyzer(),
		Gateway:   gw,
		Store:     msgStore,
		Memories:  memories,
	})
	engine.Start(ctx)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 10m", engine.Sweep); err != nil {
		log.Fatalf("failed to register maintenance sweep: %v", err)
	}
	sweeper.Start()

	slog.Info("orchestrator running", "personas", len(catalog.Personas), "providers", len(providers))

	// The presence signal and the message subscription are wired by the
	// embedding platform: it calls engine.OnActivityChanged and
	// engine.OnHumanMessage from its own feeds. In dev mode stdin stands in
	// for both.
	if devMode {
		engine.OnActivityChanged("dev", "general", 1)
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				engine.OnHumanMessage("dev", "local-user", "you", line)
			}
		}()
	}
	<-ctx.Done()

	<-sweeper.Stop().Done()
	engine.Stop()
	slog.Info("orchestrator stopped")
}

// echoStore prints persona messages to stdout on their way into the
// in-memory store, so dev runs are watchable.
type echoStore struct {
	next store.MessageStore
}

func (s *echoStore) Send(ctx context.Context, roomID string, msg store.Outgoing) (string, error) {
	fmt.Printf("[%s] %s: %s\n", roomID, msg.DisplayName, msg.Text)
	return s.next.Send(ctx, roomID, msg)
}
