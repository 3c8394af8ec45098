package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/services/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CurationService is the workflow the HTTP routes drive. *curation.CurationService implements it.
type CurationService interface {
	CreateCuration(ctx context.Context, request domain.CreateCurationRequest) (int64, error)
	UpdateStatus(ctx context.Context, id int64, request domain.UpdateStatusRequest) (*entities.Curation, error)
	GetCuration(ctx context.Context, id int64) (*entities.Curation, error)
	ListCurations(ctx context.Context, query domain.ListQuery) (*domain.CurationPage, error)
	PendingSummary(ctx context.Context) ([]string, error)
}

// LedgerService is the legacy spreadsheet flow. *ledger.Service implements it.
type LedgerService interface {
	AppendCorrection(ctx context.Context, correction ledger.LegacyCorrection) error
	Pending(ctx context.Context) ([]string, error)
}

// Server representa o servidor HTTP da API
type Server struct {
	logger          *slog.Logger
	server          *http.Server
	router          chi.Router
	port            int
	curationService CurationService
	ledgerService   LedgerService
	healthChecks    []namedHealthCheck
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	allowedOrigins []string,
	curationService CurationService,
	ledgerService LedgerService,
) *Server {
	server := &Server{
		router:          chi.NewRouter(),
		port:            port,
		logger:          logger,
		curationService: curationService,
		ledgerService:   ledgerService,
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	server.router.Use(middleware.RequestID)
	server.router.Use(middleware.Recoverer)
	server.router.Use(middleware.Compress(5, "application/json"))
	server.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	server.router.Get("/", server.Health)

	// Rotas de Leitura
	server.router.Get("/v1/curations", server.ListCurations)
	server.router.Get("/v1/curations/pending", server.PendingSummary)
	server.router.Get("/v1/curations/{id}", server.GetCuration)

	// Rotas de Escritas
	server.router.Post("/v1/curations", server.CreateCuration)
	server.router.Patch("/v1/curations/{id}/status", server.UpdateStatus)

	// Planilha legada
	server.router.Post("/v1/corrections", server.AppendCorrection)
	server.router.Get("/v1/corrections/pending", server.PendingCorrections)

	return server
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
