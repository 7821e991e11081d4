package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const maxStoredResponse = 64 * 1024

// Interaction is one generation call kept for diagnosing bad model output.
type Interaction struct {
	ID           uuid.UUID
	RequestKind  string
	Prompt       string
	ResponseText string
	ModelUsed    string
	Outcome      ErrorKind
	ErrorMessage string
	LatencyMs    int
	CreatedAt    time.Time
}

// Outcome label stored for successful generations.
const outcomeOK = "OK"

var _ InteractionRepository = (*PostgresInteractionRepo)(nil)
var _ InteractionRepository = NoopInteractionRepo{}

type InteractionRepository interface {
	SaveInteraction(ctx context.Context, interaction Interaction) error
}

// Execer is satisfied by *pgxpool.Pool and by pgxmock pools.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresInteractionRepo struct {
	logger *slog.Logger
	pgpool Execer
}

func NewPostgresInteractionRepo(pgpool Execer, logger *slog.Logger) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresInteractionRepo) SaveInteraction(ctx context.Context, interaction Interaction) error {
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}
	outcome := string(interaction.Outcome)
	if outcome == "" {
		outcome = outcomeOK
	}
	response := runePrefix(interaction.ResponseText, maxStoredResponse)

	query := `
        INSERT INTO llm_interactions (
            id, request_kind, prompt, response_text, model_used, outcome, error_message, latency_ms, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.pgpool.Exec(ctx, query,
		interaction.ID, interaction.RequestKind, interaction.Prompt, response,
		interaction.ModelUsed, outcome, interaction.ErrorMessage, interaction.LatencyMs, interaction.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save llm interaction", slog.Any("error", err), slog.String("interaction_id", interaction.ID.String()))
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	return nil
}

// NoopInteractionRepo is used when no database is configured.
type NoopInteractionRepo struct{}

func (NoopInteractionRepo) SaveInteraction(context.Context, Interaction) error { return nil }
