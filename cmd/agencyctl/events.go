package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"agency-portal/config"
	"agency-portal/database"
	"agency-portal/internal/infra/eventlock"
	"agency-portal/internal/infra/logging"
	stripeinfra "agency-portal/internal/infra/stripe"
	"agency-portal/internal/infra/vercel"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"

	"github.com/spf13/cobra"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and replay stored Stripe webhook events",
	}
	cmd.AddCommand(eventsReplayCmd(), eventsListFailedCmd())
	return cmd
}

func eventsReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [event-id]",
		Short: "Re-run a stored event through the reconciliation engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEnv()
			log := logging.New(cfg.AppEnv, cfg.LogLevel)

			db, err := database.Open(cfg.DBURL, false, log)
			if err != nil {
				return err
			}

			var controller reconcile.AccessController = vercel.Disabled{}
			if vc := vercel.NewClient(cfg.VercelAPIToken, cfg.VercelTeamID, cfg.VercelAPIBaseURL); vc.Configured() {
				controller = vc
			}
			var siteLock reconcile.SiteLocker = eventlock.NoopLocker{}
			if cfg.RedisURL != "" {
				l, err := eventlock.NewRedisLockerFromURL(cfg.RedisURL, cfg.WebhookLockTTL)
				if err != nil {
					return err
				}
				defer l.Close()
				siteLock = l.WithPrefix(eventlock.SiteKeyPrefix)
			}

			engine := reconcile.NewEngine(reconcile.Deps{
				Ledger:       repository.NewLedgerRepository(db),
				Directory:    repository.NewDirectoryRepository(db),
				SiteControls: repository.NewSiteControlRepository(db),
				Journal:      repository.NewJournalRepository(db),
				Controller:   controller,
				Fetcher:      stripeinfra.NewClient(cfg.StripeSecretKey, cfg.AppURL),
				SiteLock:     siteLock,
				Logger:       log,
			})

			out, err := engine.Replay(context.Background(), repository.NewWebhookEventRepository(db), args[0])
			if err != nil {
				return fmt.Errorf("replay %s: %w", args[0], err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "event %s (%s) replayed\n", out.EventID, out.Kind)
			if out.Dropped {
				fmt.Fprintf(w, "  dropped: %s\n", out.DropReason)
			}
			if t := out.Transition; t != nil {
				fmt.Fprintf(w, "  site %s: %s -> %s committed=%v\n", t.ProjectID, t.From, t.To, t.Committed)
			}
			for _, a := range out.Activities {
				fmt.Fprintf(w, "  activity: %s\n", a)
			}
			for _, a := range out.Alerts {
				fmt.Fprintf(w, "  alert: %s\n", a)
			}
			return nil
		},
	}
}

func eventsListFailedCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list-failed",
		Short: "List stored events whose last processing attempt failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEnv()
			db, err := database.Open(cfg.DBURL, false, logging.New(cfg.AppEnv, cfg.LogLevel))
			if err != nil {
				return err
			}

			failed, err := repository.NewWebhookEventRepository(db).ListFailed(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(failed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no failed events")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EVENT\tTYPE\tRECEIVED\tERROR")
			for _, e := range failed {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ProviderEventID, e.EventType, e.CreatedAt.Format("2006-01-02 15:04:05"), e.ProcessingError)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum events to list")
	return cmd
}
