// Command viziclawd drives the streaming agent orchestrator from the
// command line: send a message, list sessions, inspect or delete one, and
// watch the live event stream as NDJSON on stdout.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/viziclaw/agentcore/internal/agentloop"
	"github.com/viziclaw/agentcore/internal/config"
	"github.com/viziclaw/agentcore/internal/dispatch"
	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/internal/identity"
	"github.com/viziclaw/agentcore/internal/memorycontext"
	"github.com/viziclaw/agentcore/internal/providers"
	"github.com/viziclaw/agentcore/internal/service"
	"github.com/viziclaw/agentcore/internal/sessionstore"
	"github.com/viziclaw/agentcore/internal/skills"
	"github.com/viziclaw/agentcore/internal/workspace"
	"github.com/viziclaw/agentcore/pkg/models"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "viziclawd",
		Short: "Streaming agent orchestrator",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newSendCommand(&configPath),
		newListCommand(&configPath),
		newGetCommand(&configPath),
		newDeleteCommand(&configPath),
		newNewSessionCommand(&configPath),
	)
	return root
}

func buildService(configPath string) (*service.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	dbPath, err := sessionstore.DefaultPath()
	if err != nil {
		return nil, nil, err
	}
	store, err := sessionstore.OpenSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}

	ws, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	id, err := identity.Load("IDENTITY.md")
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	loader, err := skills.NewLoader(cfg.SkillsDir, nil)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	sink := eventstream.NewCallbackSink(func(e models.AgentEvent) {
		encoded, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Println(string(encoded))
	})

	oauthPath, err := agentloop.DefaultOAuthTokenPath()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	deps := agentloop.Dependencies{
		Store: store,
		ProviderFactory: func(name string) providers.Provider {
			return providers.New(providers.DialectFor(name), providers.DefaultEndpoint(name))
		},
		Registry:     dispatch.NewRegistry(),
		Collaborator: memorycontext.NopCollaborator{},
		Sink:         sink,
		Config:       cfg,
		Workspace:    ws,
		Identity:     id,
		Skills:       loader,
		OAuthStore:   agentloop.NewFileOAuthStore(oauthPath),
	}

	return service.New(deps), func() { store.Close() }, nil
}

func newSendCommand(configPath *string) *cobra.Command {
	var sessionID, provider, model string

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a message and stream the agent's reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := buildService(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := svc.SendMessage(cmd.Context(), sessionID, args[0], provider, model)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "session:", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "existing session id")
	cmd.Flags().StringVar(&provider, "provider", "", "provider override")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	return cmd
}

func newListCommand(configPath *string) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := buildService(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			sessions, err := svc.ListSessions(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(sessions, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max sessions to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}

func newGetCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get [session-id]",
		Short: "Show a session's full turn history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := buildService(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			detail, err := svc.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(detail, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}

func newDeleteCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := buildService(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.DeleteSession(cmd.Context(), args[0])
		},
	}
}

func newNewSessionCommand(configPath *string) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "new-session",
		Short: "Allocate a session without sending a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := buildService(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := svc.NewSession(cmd.Context(), provider, model)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider")
	cmd.Flags().StringVar(&model, "model", "", "model")
	return cmd
}
