package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlfredBerg/regsido/internal/browser"
	"github.com/AlfredBerg/regsido/internal/config"
	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/database"
	"github.com/AlfredBerg/regsido/internal/outputHandlers/sqlstore"
	"github.com/AlfredBerg/regsido/internal/sites"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type scrapeFlags struct {
	url   string
	trace bool
	bin   string
}

var sflags scrapeFlags

var scrapeCmd = &cobra.Command{
	Use:   "scrape <" + strings.Join(sites.Names(), "|") + ">",
	Short: "Scrape a carmaker FAQ into the faq table",
	Long: `Opens the FAQ page in a browser, expands every question on every page and
appends what was collected to the faq table in one batch once the run ends.
Re-running appends the same questions again.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: sites.Names(),
	RunE:      runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.Bool("headless", true, "Run the browser without a window.")
	f.Duration("timeout", 10*time.Second, "The maximum time to wait for the page to react to a click.")
	f.Int("max-pages", 0, "Stop after this many pages, 0 means all of them.")
	f.StringVar(&sflags.url, "url", "", "Override the FAQ page url.")
	f.BoolVar(&sflags.trace, "trace", false, "Log every browser action.")
	f.StringVar(&sflags.bin, "browser-bin", "", "Browser executable to use instead of the downloaded one.")

	cobra.CheckErr(viper.BindPFlag(config.KeyScraperHeadless, f.Lookup("headless")))
	cobra.CheckErr(viper.BindPFlag(config.KeyScraperTimeout, f.Lookup("timeout")))
	cobra.CheckErr(viper.BindPFlag(config.KeyScraperMaxPages, f.Lookup("max-pages")))

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	site, err := sites.ByName(args[0], sflags.url, sites.DefaultSettle)
	if err != nil {
		return err
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Ping(ctx, db); err != nil {
		return err
	}

	// The browser outlives a canceled run so the session can still be closed.
	sess, err := browser.Launch(context.WithoutCancel(ctx), browser.Options{
		Headless: cfg.Scraper.Headless,
		Trace:    sflags.trace,
		Bin:      sflags.bin,
	}, logger)
	if err != nil {
		return err
	}

	j := crawl.Job{
		Session:       sess,
		Site:          site,
		OutputHandler: sqlstore.New(db, cfg.Database.Driver, logger),
		Logger:        logger,
		Timeout:       cfg.Scraper.Timeout,
		MaxPages:      cfg.Scraper.MaxPages,
	}
	res := j.Crawl(ctx)

	logger.Info("scrape done",
		zap.String("run_id", res.RunID),
		zap.Stringer("state", res.State),
		zap.Int("records", len(res.Records)),
	)
	if res.SaveErr != nil {
		return fmt.Errorf("run %s: %w", res.RunID, res.SaveErr)
	}
	if res.State == crawl.StateAborted {
		return fmt.Errorf("run %s aborted after %d pages: %w", res.RunID, res.Pages, res.Err)
	}
	return nil
}
