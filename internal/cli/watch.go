// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/cache"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/events"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/transport"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/screens/projectview"
)

func (a *app) watchCmd() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "watch [project-id]",
		Short: "Open the interactive dashboard",
		Long: `watch opens the terminal dashboard. Without an argument it starts on the
project list; with a project id it opens that project's dashboard directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cache.Open(a.cfg.Cache)
			if err != nil {
				return fmt.Errorf("open session cache: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					log := logger.GetCLILogger()
					log.Warn().Err(err).Msg("Closing session cache")
				}
			}()

			deps := tui.Deps{
				Backend:       a.client,
				NewSession:    a.sessionFactory(cache.NewSessionCache(store)),
				MarkdownStyle: style,
			}
			if len(args) == 1 {
				deps.Project = args[0]
			}
			return tui.Run(cmd.Context(), deps)
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style for markdown files (dark, light, notty, dracula)")
	return cmd
}

// sessionFactory shares one router and one live client across the sessions
// of a dashboard run. Only one session is open at a time.
func (a *app) sessionFactory(sc *cache.SessionCache) tui.SessionFactory {
	router := events.NewRouter(a.cfg.Chat.EventHistorySize)
	opts := transport.OptionsFromConfig(a.cfg)
	opts.Sink = router
	live := transport.NewClient(opts)

	return func(projectID string) projectview.Session {
		return dashboard.NewSession(projectID, dashboard.Deps{
			API:    a.client,
			Live:   live,
			Router: router,
			Cache:  sc,
			Poll:   a.cfg.Poll,
			Chat:   a.cfg.Chat,
		})
	}
}
