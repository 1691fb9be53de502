// Command invoicectl runs invoicing maintenance jobs from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/bootstrap"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/event"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand shares once the root command has started
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	services *bootstrap.Services
	closers  []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "invoicectl:", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Operate the invoicing ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.AddCommand(newRecurringCommand(a), newReconcileCommand(a), newSequenceCommand(a))
	return root
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	a.closers = append(a.closers, func() { _ = logger.Sync(log) })

	db, err := bootstrap.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	client, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		a.closers = append(a.closers, func() { _ = client.Close() })
	}
	sequence, err := bootstrap.DocumentSequence(cfg, db.DB, client)
	if err != nil {
		return err
	}

	serializer := event.NewEventSerializer()
	event.RegisterInvoicingEvents(serializer)
	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewJournalHandler(serializer, log.Named("journal")))

	a.services = bootstrap.NewServices(bootstrap.Options{
		Config:    cfg,
		DB:        db.DB,
		Logger:    log,
		Sequence:  sequence,
		Publisher: bus,
	})
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newRecurringCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring invoice schedules",
	}

	var at string
	var scheduleID, userID string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate invoices for every due schedule, or for one schedule with --schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scheduleID != "" {
				sid, uid, err := parseOwnedID(scheduleID, userID)
				if err != nil {
					return err
				}
				invoice, err := a.services.Recurring.RunNow(cmd.Context(), uid, sid)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), invoice)
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			result, err := a.services.Recurring.ProcessDue(cmd.Context(), now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	run.Flags().StringVar(&at, "at", "", "process as of this RFC 3339 time (default: now)")
	run.Flags().StringVar(&scheduleID, "schedule", "", "run a single schedule immediately")
	run.Flags().StringVar(&userID, "user", "", "owner of --schedule")
	run.MarkFlagsRequiredTogether("schedule", "user")

	cmd.AddCommand(run)
	return cmd
}

func newReconcileCommand(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Persist expired quotes and overdue invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			result, err := a.services.Reconcile.Sweep(cmd.Context(), now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "sweep as of this RFC 3339 time (default: now)")
	return cmd
}

func newSequenceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Document number sequences",
	}

	var userID, docType string
	var year int
	next := &cobra.Command{
		Use:   "next",
		Short: "Reserve and print the next document number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			dt := invoicing.DocumentType(docType)
			if !dt.IsValid() {
				return fmt.Errorf("invalid --type %q: want invoice or quote", docType)
			}
			if year == 0 {
				year = time.Now().UTC().Year()
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.services.Numbering.Next(cmd.Context(), uid, dt, year))
			return nil
		},
	}
	next.Flags().StringVar(&userID, "user", "", "owner of the sequence")
	next.Flags().StringVar(&docType, "type", string(invoicing.DocumentTypeInvoice), "invoice or quote")
	next.Flags().IntVar(&year, "year", 0, "sequence year (default: current year)")
	_ = next.MarkFlagRequired("user")

	cmd.AddCommand(next)
	return cmd
}

func parseAt(at string) (time.Time, error) {
	if at == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at: %w", err)
	}
	return t.UTC(), nil
}

func parseOwnedID(id, owner string) (uuid.UUID, uuid.UUID, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid --schedule: %w", err)
	}
	uid, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid --user: %w", err)
	}
	return sid, uid, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
