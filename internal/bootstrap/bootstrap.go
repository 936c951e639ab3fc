// Package bootstrap builds the assignment components shared by the API server and ticketctl.
package bootstrap

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/lock"
	"github.com/spec-kit/ticket-assigner/internal/notify"
	"github.com/spec-kit/ticket-assigner/internal/persistence"
	"github.com/spec-kit/ticket-assigner/internal/skills"
)

const assignmentLockKey = "ticket-assigner:assignment-lock"

// Skills loads the catalog from cfg.SkillCatalogPath, or the built-in one, and compiles it.
func Skills(cfg config.AssignmentConfig) (*skills.Catalog, *skills.Extractor, error) {
	catalog, err := skills.LoadCatalogOrDefault(cfg.SkillCatalogPath)
	if err != nil {
		return nil, nil, err
	}
	return catalog, skills.NewExtractor(catalog), nil
}

// Locker returns the assignment lock for cfg.LockMode. Mode none yields a nil Locker.
func Locker(cfg config.AssignmentConfig, redis *persistence.Redis, logger *zap.Logger) (lock.Locker, error) {
	switch cfg.LockMode {
	case "", config.LockModeNone:
		return nil, nil
	case config.LockModeLocal:
		return lock.NewLocal(), nil
	case config.LockModeRedis:
		if redis == nil || redis.Client == nil {
			return nil, errors.New("redis lock mode requires a redis client")
		}
		return redis.NewLocker(assignmentLockKey, cfg.LockTTL(), cfg.LockWait(), logger), nil
	default:
		return nil, fmt.Errorf("unknown lock mode %q", cfg.LockMode)
	}
}

// Notifiers builds the configured mail and chat channels. Unconfigured channels are nil.
func Notifiers(cfg config.NotificationConfig) (mail, chat notify.Notifier) {
	if cfg.SMTPEnabled() {
		mail = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	}
	if cfg.SlackWebhookURL != "" {
		chat = notify.NewSlack(cfg.SlackWebhookURL)
	}
	return mail, chat
}
