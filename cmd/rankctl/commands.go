package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	sdk "rankkit/sdk/go"
)

type rootOptions struct {
	server string
	apiKey string
	board  string
	client *sdk.Client
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "rankctl",
		Short:        "Administer rankkit leaderboards over the HTTP API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var clientOpts []sdk.Option
			if opts.apiKey != "" {
				clientOpts = append(clientOpts, sdk.WithAPIKey(opts.apiKey))
			}
			c, err := sdk.NewClient(opts.server, clientOpts...)
			if err != nil {
				return err
			}
			opts.client = c
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("RANKCTL_SERVER", "http://localhost:8080/api"), "Base URL of the rankkit API")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("RANKCTL_API_KEY"), "API key sent as X-API-Key")
	root.PersistentFlags().StringVarP(&opts.board, "board", "b", "leaderboard", "Board name")

	root.AddCommand(
		newSetCmd(opts),
		newGetCmd(opts),
		newDeleteCmd(opts),
		newRankCmd(opts),
		newRangeCmd(opts),
		newAllCmd(opts),
		newSaveCmd(opts),
		newLoadCmd(opts),
		newCleanCmd(opts),
		newRotateCmd(opts),
		newSeasonCmd(opts),
		newBoardsCmd(opts),
		newHealthCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [id] [score] [payload-json]",
		Short: "Upserts an entry's score and payload",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("score must be a number: %w", err)
			}
			var payload any
			if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
				// Plain text payloads are stored as JSON strings.
				payload = args[2]
			}
			if err := opts.client.Set(cmd.Context(), opts.board, args[0], score, payload); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Prints an entry with its rank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.client.Get(cmd.Context(), opts.board, args[0])
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("entry %q is not ranked on %s", args[0], opts.board)
			}
			return printJSON(cmd, e)
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Removes an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client.Delete(cmd.Context(), opts.board, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted successfully")
			return nil
		},
	}
}

func newRankCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rank [id]",
		Short: "Prints the 1-based rank of an entry, or -1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client.Rank(cmd.Context(), opts.board, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
}

func newRangeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "range [start] [stop]",
		Short: "Prints entries at positions start through stop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("start must be a number: %w", err)
			}
			stop, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("stop must be a number: %w", err)
			}
			b, err := opts.client.Range(cmd.Context(), opts.board, start, stop)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
}

func newAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Prints the whole visible board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.client.All(cmd.Context(), opts.board)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
}

func newSaveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Archives the current board view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.client.Save(cmd.Context(), opts.board)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	var season string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Prints an archived snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.client.Archive(cmd.Context(), opts.board, season)
			if err != nil {
				return err
			}
			if b.Entries == nil {
				return errors.New("no snapshot saved")
			}
			return printJSON(cmd, b)
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "Season to load (seasonal boards, default current)")
	return cmd
}

func newCleanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Drops the live ranking and payloads, keeping archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client.Clean(cmd.Context(), opts.board); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleaned successfully")
			return nil
		},
	}
}

func newRotateCmd(opts *rootOptions) *cobra.Command {
	var season string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Archives and cleans a season of a seasonal board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.client.Rotate(cmd.Context(), opts.board, season)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "Season to rotate (default current)")
	return cmd
}

func newSeasonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "season",
		Short: "Prints the current season of a seasonal board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.client.Season(cmd.Context(), opts.board)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newBoardsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "Lists registered boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.client.Boards(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Checks server and storage health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := opts.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, hs)
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Streams board events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := opts.client.SubscribeEvents(cmd.Context(), opts.board)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for evt := range events {
				if err := enc.Encode(evt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
