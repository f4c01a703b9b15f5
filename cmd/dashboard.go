package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlfredBerg/regsido/internal/config"
	"github.com/AlfredBerg/regsido/internal/dashboard"
	"github.com/AlfredBerg/regsido/internal/database"
	"github.com/AlfredBerg/regsido/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type reportFlags struct {
	selection dashboard.Selection
	view      string
}

var rflags reportFlags

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Vehicle registration statistics from CAR_REGIST_SIDO",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Serves the dashboard at /, a database health check at /healthz and
Prometheus metrics at /metrics. The registration table is loaded on the first
request and kept in memory for DASHBOARD_CACHE_TTL.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dashboard views for one selection",
	Long: `Prints the same views as the web dashboard. Filters that are not given, or
that do not exist in the table, fall back to the first available value.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	serveCmd.Flags().String("addr", ":8501", "Address to listen on.")
	cobra.CheckErr(viper.BindPFlag(config.KeyDashboardAddr, serveCmd.Flags().Lookup("addr")))

	f := reportCmd.Flags()
	f.StringVar(&rflags.selection.Year, "year", "", "Registration year, e.g. 2024.")
	f.StringVar(&rflags.selection.Month, "month", "", "Registration month, e.g. 01.")
	f.StringVar(&rflags.selection.Sido, "sido", "", "Region.")
	f.StringVar(&rflags.selection.Sigungu, "sigungu", "", "Sub-region within the region.")
	f.StringVar(&rflags.view, "view", string(dashboard.ViewAll), "One of all, bar, usage, combined or table.")

	dashboardCmd.AddCommand(serveCmd, reportCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	renderer, err := dashboard.NewHTMLRenderer()
	if err != nil {
		return err
	}
	cache := dashboard.NewCache(dashboard.NewRepository(db), cfg.Dashboard.CacheTTL)
	router := server.NewRouter(
		dashboard.NewHandler(cache, renderer, logger),
		server.PingerFunc(func(ctx context.Context) error { return database.Ping(ctx, db) }),
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg.Dashboard.Addr, router, logger).Run(ctx)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := dashboard.NewRepository(db).LoadRegistrations(cmd.Context())
	if err != nil {
		return err
	}
	rep := dashboard.BuildReport(dashboard.NewTable(rows), dashboard.Query{
		Selection: rflags.selection,
		View:      dashboard.ParseView(rflags.view),
	})
	return dashboard.TerminalRenderer{}.Render(cmd.OutOrStdout(), rep)
}
