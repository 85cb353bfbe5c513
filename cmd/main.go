package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradeledger/cmd/match"
	"tradeledger/src/connectors"
	"tradeledger/src/contractspec"
	"tradeledger/src/database"
	"tradeledger/src/follower"
	"tradeledger/src/matcher"
	"tradeledger/src/repository"
)

var Version string

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "tradeledger"
	app.Usage = "Match futures fills into closed trades"
	app.Version = Version

	app.Commands = []cli.Command{
		matchCMD,
		followCMD,
		specsCMD,
		migrateCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	matchCMD = cli.Command{
		Name:      "match",
		Usage:     "match fills from a CSV export or the import database",
		Action:    matchAction,
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "source", Usage: "fill source: csv or db"},
			cli.StringFlag{Name: "format, f", Usage: "CSV format: generic, tradovate or ninjatrader"},
			cli.StringFlag{Name: "timezone, tz", Usage: "zone of timestamps without offset"},
			cli.StringFlag{Name: "account", Usage: "db source: only this account"},
			cli.StringFlag{Name: "since", Usage: "db source: fills executed at or after (RFC3339)"},
			cli.StringFlag{Name: "output, o", Usage: "result file, - for stdout"},
			cli.BoolFlag{Name: "persist", Usage: "store trades, open positions and the run"},
			cli.BoolFlag{Name: "remote-specs", Usage: "preload contract specs from CONTRACT_SPECS_URL"},
		},
		Description: `Reads fills, matches them FIFO per account and instrument and prints
the trades, open positions and problems as JSON.`,
	}
	followCMD = cli.Command{
		Name:        "follow",
		Usage:       "match new imported fills as they arrive",
		Action:      followAction,
		Description: `Polls imported_fills every FOLLOW_LOOP_PERIOD and stores the trades and open positions they produce.`,
	}
	specsCMD = cli.Command{
		Name:  "specs",
		Usage: "print the effective contract spec table",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "db", Usage: "include overrides stored in the main database"},
		},
		Action: specsAction,
	}
	migrateCMD = cli.Command{
		Name:   "migrate",
		Usage:  "run schema and data migrations on the main database",
		Action: migrateAction,
	}
)

func matchAction(c *cli.Context) error {
	log := logrus.WithField("cmd", "match")

	cfg := match.GetConfig()
	if c.NArg() > 0 {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("source") {
		cfg.Source = c.String("source")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("timezone") {
		cfg.Timezone = c.String("timezone")
	}
	if c.IsSet("account") {
		cfg.Account = c.String("account")
	}
	if c.IsSet("since") {
		cfg.Since = c.String("since")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.Bool("persist") {
		cfg.Persist = true
	}
	if c.Bool("remote-specs") {
		cfg.RemoteSpecs = true
	}

	m := &match.Match{
		Log:      log,
		Config:   cfg,
		Specs:    contractspec.GetConfig(),
		Matching: matcher.GetConfig(),
		Remote:   connectors.GetConfig(),
	}

	if cfg.Persist {
		if err := database.InitMainDB(); err != nil {
			log.WithError(err).Error("Failed to connect to database")
			return err
		}
		m.DB = database.MainDB
	}
	if cfg.Source == match.SourceDB {
		if err := database.InitReadOnlyDB(); err != nil {
			log.WithError(err).Error("Failed to connect to read-only database")
			return err
		}
		m.ReadDB = database.ReadOnlyDB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		log.WithError(err).Error("Match failed")
		return err
	}
	return nil
}

func followAction(_ *cli.Context) error {
	log := logrus.WithField("cmd", "follow")

	if err := database.InitMainDB(); err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return err
	}
	if err := database.InitReadOnlyDB(); err != nil {
		log.WithError(err).Error("Failed to connect to read-only database")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := contractspec.NewResolverFromConfig(contractspec.GetConfig())
	if err != nil {
		return err
	}
	opts, err := matcher.GetConfig().Options()
	if err != nil {
		return err
	}
	opts.Log = log

	f := follower.New(
		follower.GetConfig(),
		repository.NewFillSourceRepository(),
		repository.NewTradeRepository(),
		matcher.NewBook(resolver, opts),
	)
	f.Log = log
	f.Specs = repository.NewContractSpecRepository()
	f.Resolver = resolver
	return f.StartLoop(ctx)
}

func specsAction(c *cli.Context) error {
	resolver, err := contractspec.NewResolverFromConfig(contractspec.GetConfig())
	if err != nil {
		return err
	}

	if c.Bool("db") {
		if err := database.InitMainDB(); err != nil {
			return err
		}
		stored, err := repository.NewContractSpecRepository().FindAll(context.Background())
		if err != nil {
			return err
		}
		for _, spec := range stored {
			if err := resolver.Register(spec); err != nil {
				logrus.WithField("symbol", spec.Symbol).WithError(err).Warn("Skipping stored contract spec")
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SYMBOL\tTICK SIZE\tTICK VALUE\tSOURCE")
	for _, spec := range resolver.Snapshot() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Symbol, spec.TickSize, spec.TickValue, spec.Source)
	}
	def := resolver.Default()
	_, _ = fmt.Fprintf(w, "*\t%s\t%s\t%s\n", def.TickSize, def.TickValue, def.Source)
	return w.Flush()
}

func migrateAction(_ *cli.Context) error {
	logrus.Info("Running migrations")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Migration failed")
		return err
	}
	return nil
}
