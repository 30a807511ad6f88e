package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"task_manager/internal/client"
	"task_manager/internal/domain"
	"task_manager/internal/tui"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

// cli carries per-invocation state shared by the subcommands.
type cli struct {
	server  string
	timeout time.Duration
	sess    *session
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your tasks from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := loadSession()
			if err != nil {
				return err
			}
			app.sess = sess
			if !cmd.Flags().Changed("server") && sess.Server != "" {
				app.server = sess.Server
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.server, "server", envOr("TASKCTL_SERVER", defaultServer), "API base URL")
	root.PersistentFlags().DurationVar(&app.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		app.registerCmd(),
		app.loginCmd(),
		app.logoutCmd(),
		app.meCmd(),
		app.listCmd(),
		app.addCmd(),
		app.updateCmd(),
		app.deleteCmd(),
		app.statsCmd(),
		app.dashboardCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *cli) client() *client.Client {
	return client.New(a.server, client.WithToken(a.sess.Token))
}

func (a *cli) authed() (*client.Client, error) {
	if a.sess.Token == "" {
		return nil, fmt.Errorf("%w: run `taskctl login` first", client.ErrNoToken)
	}
	return a.client(), nil
}

func (a *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *cli) remember(res *client.AuthResult) error {
	a.sess.Server = a.server
	a.sess.Token = res.Token
	a.sess.Email = res.User.Email
	return saveSession(a.sess)
}

func (a *cli) registerCmd() *cobra.Command {
	var email, password, username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := a.client().Register(ctx, email, password, username)
			if err != nil {
				return err
			}
			if err := a.remember(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", res.User.Username, res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	return cmd
}

func (a *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := a.client().Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.remember(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (a *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.sess.Token != "" {
				ctx, cancel := a.context(cmd)
				defer cancel()
				if err := a.client().Logout(ctx); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: server logout failed:", err)
				}
			}
			if err := clearSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *cli) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			u, err := c.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\tjoined %s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format(time.DateOnly))
			return nil
		},
	}
}

func (a *cli) listCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			tasks, err := c.ListTasks(ctx, domain.TaskFilter{Status: domain.Status(status), Search: search})
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status (Todo, In Progress, Completed)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive title substring")
	return cmd
}

func (a *cli) addCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			t, err := c.CreateTask(ctx, args[0], domain.Status(status))
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []*domain.Task{t})
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "initial status (default Todo)")
	return cmd
}

func (a *cli) updateCmd() *cobra.Command {
	var title, status string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task's title and/or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var p domain.TaskPatch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("status") {
				s := domain.Status(status)
				p.Status = &s
			}

			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			t, err := c.UpdateTask(ctx, id, p)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []*domain.Task{t})
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func (a *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := c.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func (a *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			s, err := c.Stats(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Total\t%d\n", s.Total)
			fmt.Fprintf(w, "Todo\t%d\n", s.Todo)
			fmt.Fprintf(w, "In Progress\t%d\n", s.InProgress)
			fmt.Fprintf(w, "Completed\t%d\n", s.Completed)
			return w.Flush()
		},
	}
}

func (a *cli) dashboardCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			var watch func(context.Context, func(domain.TaskEvent)) error
			if live {
				watch = c.Watch
			}
			err = tui.Run(cmd.Context(), client.NewStore(c), watch)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&live, "live", true, "apply changes from other sessions as they happen")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printTasks(out io.Writer, tasks []*domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Status, t.Title, t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
