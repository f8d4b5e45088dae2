// Package app provides application initialization and dependency injection.
//
// App is the container that wires the database pool, Genkit, the knowledge
// store, crisis detection, and the query orchestrator together. Setup builds
// it; Close releases everything in reverse order.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenav/carenav/internal/config"
	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/knowledge"
	"github.com/carenav/carenav/internal/rag"
)

// App is the core application container.
type App struct {
	// Configuration
	Config *config.Config

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	// Domain components
	Knowledge    *knowledge.Store
	Resources    *crisis.ResourceStore
	Detector     *crisis.Detector
	Retriever    *rag.Retriever
	Generator    *rag.Generator
	Orchestrator *rag.Orchestrator

	// Lifecycle management
	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
		slog.Info("database pool closed")
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
