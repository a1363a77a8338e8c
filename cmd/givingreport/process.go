package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"givingreport/internal/cache"
	"givingreport/internal/ccb"
	"givingreport/internal/config"
	"givingreport/internal/dataset"
	"givingreport/internal/infra"
	"givingreport/internal/notify"
	"givingreport/internal/recon"
	"givingreport/internal/workbook"
)

type processFlags struct {
	input        string
	outputDir    string
	useFileCache bool
	noEmail      bool
	logLevel     string
}

func newProcessCmd() *cobra.Command {
	var flags processFlags
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Pull giving data, reconcile project assignments, and write the report workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", "path of the override workbook (default Input.xlsx)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory for the output workbook (default tmp)")
	cmd.Flags().BoolVar(&flags.useFileCache, "use-file-cache", false, "read transactions and individuals from the file cache instead of the CCB API")
	cmd.Flags().BoolVar(&flags.noEmail, "no-email", false, "do not send the notification email")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	return cmd
}

func runProcess(cmd *cobra.Command, flags processFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.input != "" {
		cfg.InputPath = flags.input
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}

	digest := &infra.Digest{}
	log := infra.NewLogger(cfg.AppEnv, infra.ParseLevel(flags.logLevel), digest).
		With().Str("run_id", uuid.NewString()).Logger()

	if err := cfg.LoadVault(!flags.useFileCache, !flags.noEmail); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.InputPath); err != nil {
		return fmt.Errorf("override workbook %s not found; it must carry the AddFamilies, IndividualUpdate, IndividualConcat, CoaRemap, MatchedTransactions, and ProjectAssignments sheets: %w", cfg.InputPath, err)
	}
	input, err := workbook.ReadInput(cfg.InputPath)
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.CacheDir)
	if err != nil {
		return err
	}
	run, err := acquire(cmd.Context(), cfg, input, store, flags.useFileCache, log)
	if err != nil {
		return err
	}

	res, err := dataset.Assemble(dataset.Inputs{
		Transactions: run.Transactions,
		Individuals:  run.Individuals,
		GivingFamIDs: run.FamilyIDs,
		GivingIndIDs: run.IndividualIDs,
		AddFamilies:  input.AddFamilies,
		Updates:      input.Updates,
		Concat:       input.Concat,
		CoaRemap:     input.CoaRemap,
		Overrides:    input.Overrides,
	}, log)
	if err != nil {
		return err
	}

	working, summary := recon.Run(res.Donations, input.Assignments, log)
	log.Info().
		Int("requests", summary.Requests).
		Int("used", summary.UsedRequests).
		Int("unused", summary.UnusedRequests).
		Int("mismatches", summary.Mismatches).
		Bool("conserved", summary.Conserved).
		Msg("reconciliation finished")

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", cfg.OutputDir, err)
	}
	outPath := filepath.Join(cfg.OutputDir, workbook.Filename(cfg.StartedAt))
	if err := workbook.Write(outPath, workbook.Output{
		Data:            res,
		Original:        res.Donations,
		Recharacterized: working,
		StartedAt:       cfg.StartedAt,
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote giving data to %s\n", outPath)

	hadErrors := !digest.Empty()
	if !flags.noEmail {
		body := digest.String()
		if !hadErrors {
			body = "Run completed without errors.\n"
		}
		mailer := notify.New(cfg.Gmail, progName, log)
		if err := mailer.SendDigest(body, hadErrors); err != nil {
			return err
		}
	} else if hadErrors {
		log.Warn().Msg("errors were logged and email notification is disabled")
	}
	return nil
}

// acquire fetches the raw report tables, either from the CCB API (saving a
// fresh cache) or from the cache written by an earlier run.
func acquire(ctx context.Context, cfg *config.Config, input *workbook.Input, store *cache.Store, useFileCache bool, log infra.Logger) (*cache.Run, error) {
	if useFileCache {
		log.Info().Msg("pulling transactions and individuals from file cache")
		return store.Load()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client, err := ccb.New(ccb.Options{
		Subdomain:  cfg.CCB.Subdomain,
		Username:   cfg.CCB.AppUsername,
		Password:   cfg.CCB.AppPassword,
		HTTPClient: &http.Client{Jar: jar, Timeout: cfg.HTTPTimeout},
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	pull, err := client.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	// Seed the requested extra families before the membership pull so their
	// records come back too.
	for _, famID := range input.AddFamilies {
		pull.FamilyIDs[famID] = struct{}{}
	}
	individuals, err := client.Individuals(ctx, pull.FamilyIDs)
	if err != nil {
		return nil, err
	}
	run := &cache.Run{
		FamilyIDs:     pull.FamilyIDs,
		IndividualIDs: pull.IndividualIDs,
		Transactions:  pull.Transactions,
		Individuals:   individuals,
	}
	if err := store.Save(run); err != nil {
		return nil, err
	}
	return run, nil
}
