package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/client"
	"prism-todo/prism-client/tui"
)

const defaultAPI = "http://localhost:8080"

type options struct {
	apiURL  string
	logFile string
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "prism-client",
		Short:         "Manage tasks stored in prism-api",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(opts)
		},
	}

	apiDefault := os.Getenv("PRISM_API")
	if apiDefault == "" {
		apiDefault = defaultAPI
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", apiDefault, "prism-api base URL (env PRISM_API)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write client logs to this file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newDoneCmd(opts),
		newStarCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newStatsCmd(opts),
		newTUICmd(opts),
	)
	return root
}

func configureLogging(opts *options) error {
	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}
	if opts.logFile == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return nil
}

func (o *options) client() *client.Client {
	return client.New(o.apiURL, nil)
}

func newListCmd(opts *options) *cobra.Command {
	var filter, search string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := domain.ParseFilter(filter)
			if err != nil {
				return err
			}
			tasks, err := opts.client().ListTasks(cmd.Context(), domain.Query{Filter: f, Search: search})
			if err != nil {
				return loadError(err)
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, pending, completed or important")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive text search")
	return cmd
}

func newAddCmd(opts *options) *cobra.Command {
	var important bool
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.client().CreateTask(cmd.Context(), strings.Join(args, " "), important)
			if err != nil {
				return mutationError("create", err)
			}
			return printTasks(cmd.OutOrStdout(), []domain.Task{t})
		},
	}
	cmd.Flags().BoolVarP(&important, "important", "i", false, "mark the task important")
	return cmd
}

func newDoneCmd(opts *options) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed := !undo
			return runUpdate(cmd, opts, args[0], domain.TaskPatch{Completed: &completed})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task pending again")
	return cmd
}

func newStarCmd(opts *options) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "star <id>",
		Short: "Mark a task important",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			important := !unset
			return runUpdate(cmd, opts, args[0], domain.TaskPatch{Important: &important})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "clear the important flag")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return runUpdate(cmd, opts, args[0], domain.TaskPatch{Text: &text})
		},
	}
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteTask(cmd.Context(), args[0]); err != nil {
				return mutationError("delete", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "task deleted")
			return nil
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.client().Stats(cmd.Context())
			if err != nil {
				return loadError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: %d\ncompleted: %d\npending: %d\nimportant: %d\n", s.Total, s.Completed, s.Pending, s.Important)
			return nil
		},
	}
}

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(cmd.Context(), opts.client(), log.StandardLogger())
		},
	}
}

func runUpdate(cmd *cobra.Command, opts *options, id string, p domain.TaskPatch) error {
	t, err := opts.client().UpdateTask(cmd.Context(), id, p)
	if err != nil {
		return mutationError("update", err)
	}
	return printTasks(cmd.OutOrStdout(), []domain.Task{t})
}

func printTasks(w io.Writer, tasks []domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		star := ""
		if t.Important {
			star = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, check, star, t.Text)
	}
	return tw.Flush()
}

func loadError(err error) error {
	log.WithError(err).Debug("load failed")
	return fmt.Errorf("failed to load tasks: %w", err)
}

func mutationError(action string, err error) error {
	log.WithError(err).WithField("action", action).Debug("mutation failed")
	return fmt.Errorf("failed to %s tasks: %w", action, err)
}
