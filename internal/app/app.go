// Package app wires the chat subsystem together: configuration, the
// Lua hook evaluator, the task scheduler and the channel registry. The
// session-command layer of the surrounding server drives the registry
// through App.Chat.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/oakmud/chatd/internal/chat"
	"github.com/oakmud/chatd/internal/config"
	"github.com/oakmud/chatd/internal/scheduler"
	"github.com/oakmud/chatd/internal/script"
)

// App owns the registry and its supporting pieces.
type App struct {
	cfg   config.Config
	log   *zerolog.Logger
	chat  *chat.Chat
	sched *scheduler.Timers
}

// New loads the static channel definitions and builds the registry.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	defs, err := config.LoadChannels(cfg.ChannelsPath)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	evaluator := script.NewEvaluator(logger.With().Str("component", "script").Logger())
	sched := scheduler.New()
	registry := chat.New(evaluator, sched, logger.With().Str("component", "chat").Logger())

	static := make([]chat.StaticChannelDef, 0, len(defs))
	for _, def := range defs {
		scriptPath := ""
		if def.Script != "" {
			scriptPath = filepath.Join(cfg.ScriptDir, def.Script)
		}
		static = append(static, chat.StaticChannelDef{
			ID:     chat.ChannelID(def.ID),
			Name:   def.Name,
			Public: def.Public,
			Script: scriptPath,
		})
	}
	registry.LoadChannels(static, evaluator)

	logger.Info().Int("channels", len(defs)).Str("path", cfg.ChannelsPath).Msg("static channels loaded")

	return &App{
		cfg:   cfg,
		log:   logger,
		chat:  registry,
		sched: sched,
	}, nil
}

// Chat exposes the channel registry to the embedding server.
func (a *App) Chat() *chat.Chat { return a.chat }

// Run blocks until the context is cancelled, then cancels outstanding
// deferred deliveries.
func (a *App) Run(ctx context.Context) error {
	<-ctx.Done()
	a.sched.Stop()
	a.log.Info().Msg("chat subsystem stopped")
	return nil
}
