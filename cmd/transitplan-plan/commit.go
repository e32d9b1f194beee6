package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"transitplan/internal/platform/config"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/net/http/bind"
	"transitplan/internal/platform/store"
	"transitplan/internal/services/planning/domain"
	planrepo "transitplan/internal/services/planning/repo"
	plansvc "transitplan/internal/services/planning/service"
)

func newCommitCmd() *cobra.Command {
	var (
		in      domain.MonthlyInput
		dbURL   string
		migrate bool
		actor   int64
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Write a monthly pattern to the schedule, printing progress as JSON lines",
		Long: `Write a monthly pattern to the schedule, printing progress as JSON lines.

An interrupt stops the output but the run keeps writing its remaining days; the command
waits for it before closing the database. A second interrupt exits immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bind.Validate(in); err != nil {
				return err
			}
			if dbURL == "" {
				dbURL = config.New().Prefix("SERVICE_PGSQL_").MayString("DBURL", "")
			}
			if dbURL == "" {
				return fmt.Errorf("no database: pass --db or set SERVICE_PGSQL_DBURL")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			l := logger.Get()
			st, err := store.Open(ctx, store.Config{
				AppName: "transitplan-plan",
				PG:      store.PGConfig{Enabled: true, URL: dbURL, MaxConns: 2},
			}, store.WithLogger(*l))
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(context.Background()); err != nil {
					l.Error().Err(err).Msg("failed to close store")
				}
			}()
			if migrate {
				if err := planrepo.Migrate(ctx, st.PG); err != nil {
					return err
				}
			}

			svc := plansvc.New(st.PG, planrepo.NewPG(), plansvc.Options{})
			stream, err := svc.StartMonthly(ctx, in, actor)
			if err != nil {
				return err
			}
			err = printStream(ctx, cmd, stream.Events())
			if ctx.Err() != nil {
				stop()
				awaitRun(cmd.ErrOrStderr(), stream.Done())
			}
			return err
		},
	}
	patternFlags(cmd, &in)
	f := cmd.Flags()
	f.StringVar(&in.ConflictResolution, "resolution", "", "skip or overwrite days the driver already works")
	f.StringVar(&dbURL, "db", "", "postgres url, defaults to SERVICE_PGSQL_DBURL")
	f.BoolVar(&migrate, "migrate", false, "apply the planning schema first")
	f.Int64Var(&actor, "as", 0, "user id recorded as creator")
	return cmd
}

// awaitRun blocks until the detached run behind done has finished
func awaitRun(w io.Writer, done <-chan struct{}) {
	select {
	case <-done:
		return
	default:
	}
	fmt.Fprintln(w, "interrupted, waiting for the run to finish its remaining days")
	<-done
}
