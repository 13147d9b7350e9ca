package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthhub/portal/internal/config"
	"github.com/healthhub/portal/internal/domain/dashboard"
	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <identity-id>",
		Short: "Issue an HS256 session token signed with AUTH_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken([]byte(cfg.AuthJWTSecret), args[0], cfg.AuthIssuer, cfg.AuthAudience, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}

// withApp runs fn against a fully wired app built from the environment.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage portal profiles",
	}

	var reg identity.Registration
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a profile with its patient or doctor record",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Role = identity.Role(role)
			return withApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.resolver.Register(ctx, reg)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), actor)
			})
		},
	}
	f := create.Flags()
	f.StringVar(&reg.IdentityID, "identity", "", "Identity provider subject")
	f.StringVar(&reg.FullName, "name", "", "Full name")
	f.StringVar(&role, "role", string(identity.RolePatient), "patient, doctor or admin")
	f.StringVar(&reg.Specialization, "specialization", "", "Doctor specialization")
	f.Float64Var(&reg.ConsultationFee, "fee", 0, "Doctor consultation fee")
	_ = create.MarkFlagRequired("identity")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard <identity-id>",
		Short: "Print the dashboard of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetDuration("watch")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.resolver.ResolveActor(ctx, args[0])
				if err != nil {
					return err
				}
				view := dashboard.NewView(ctx, func(ctx context.Context) (dashboard.Snapshot, error) {
					return a.aggregator.For(ctx, actor)
				})
				defer view.Close()
				return watchDashboard(ctx, cmd.OutOrStdout(), view, watch)
			})
		},
	}
	cmd.Flags().Duration("watch", 0, "Refresh at this interval until interrupted")
	return cmd
}

// watchDashboard prints the view once, then on every tick when every is
// positive. A failed refresh prints the error next to the last snapshot.
func watchDashboard(ctx context.Context, w io.Writer, view *dashboard.View, every time.Duration) error {
	show := func() error {
		err := view.Refresh()
		if errors.Is(err, dashboard.ErrStale) {
			return nil
		}
		snap, ok := view.Snapshot()
		if err != nil && !ok {
			return err
		}
		if err != nil {
			fmt.Fprintf(w, "refresh failed: %v\n", err)
		}
		return writeJSON(w, snap)
	}
	if err := show(); err != nil || every <= 0 {
		return err
	}

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := show(); err != nil {
				return err
			}
		}
	}
}

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Appointment reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Publish reminders for tomorrow's appointments once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				sent, err := a.reminders.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published %d reminder(s) for %s.\n", sent, a.reminders.Tomorrow())
				return nil
			})
		},
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
