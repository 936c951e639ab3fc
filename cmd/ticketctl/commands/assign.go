package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/api/dto"
	"github.com/spec-kit/ticket-assigner/internal/bootstrap"
	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/observability"
	"github.com/spec-kit/ticket-assigner/internal/persistence"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	"github.com/spec-kit/ticket-assigner/internal/service"
	"github.com/spec-kit/ticket-assigner/internal/worker"
)

var autoAssignCmd = &cobra.Command{
	Use:   "auto-assign <ticket-id>",
	Short: "Assign one ticket to the best matching moderator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *service.AssignmentService) error {
			result, err := engine.AutoAssign(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewAssignmentResponse(result))
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <ticket-id>",
	Short: "Rank moderators for a ticket without assigning it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *service.AssignmentService) error {
			candidates, err := engine.Recommend(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewCandidateResponses(candidates))
		})
	},
}

var bulkAssignCmd = &cobra.Command{
	Use:   "bulk-assign",
	Short: "Assign every unassigned ticket that has skills, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, func(ctx context.Context, engine *service.AssignmentService) error {
			result, err := engine.BulkAutoAssign(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewBulkResponse(result))
		})
	},
}

func init() {
	rootCmd.AddCommand(autoAssignCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(bulkAssignCmd)
}

// withEngine connects to the stores named in the environment and runs fn with an
// assignment engine wired the same way as the API server.
func withEngine(cmd *cobra.Command, fn func(context.Context, *service.AssignmentService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.Assignment.SkillCatalogPath = catalogPath
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	var redis *persistence.Redis
	if cfg.Assignment.LockMode == config.LockModeRedis {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
	}
	locker, err := bootstrap.Locker(cfg.Assignment, redis, logger)
	if err != nil {
		return err
	}

	pool := pg.PoolHandle()
	dispatcher := events.NewInMemoryDispatcher(logger)
	mail, chat := bootstrap.Notifiers(cfg.Notification)
	worker.StartSubscribers(
		service.NewHistoryService(service.HistoryDependencies{
			HistoryRepo: repository.NewTicketHistoryRepository(pool),
			Dispatcher:  dispatcher,
			Logger:      logger.Named("history"),
		}),
		service.NewNotificationService(service.NotificationDependencies{
			Dispatcher: dispatcher,
			Logger:     logger.Named("notify"),
			Mail:       mail,
			Chat:       chat,
		}),
	)

	engine := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   repository.NewTicketRepository(pool),
		UserRepo:     repository.NewUserRepository(pool),
		Locker:       locker,
		Dispatcher:   dispatcher,
		Logger:       logger.Named("assignment"),
		BulkPageSize: cfg.Assignment.BulkPageSize,
	})
	logger.Debug("assignment engine ready", zap.String("lock_mode", cfg.Assignment.LockMode))
	return fn(ctx, engine)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func resolveCatalogPath() string {
	if catalogPath != "" {
		return catalogPath
	}
	return os.Getenv("SKILL_CATALOG_PATH")
}
