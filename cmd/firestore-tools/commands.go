package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/firestore-tools/internal/config"
	"github.com/Lllllllleong/firestore-tools/internal/gcp"
	"github.com/Lllllllleong/firestore-tools/internal/memstore"
	"github.com/Lllllllleong/firestore-tools/internal/services"
)

// errUsage marks errors that should be followed by the usage text.
var errUsage = errors.New("invalid usage")

type globalOptions struct {
	envFile string
	dryRun  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "firestore-tools <command>",
		Short:         "Duplicate and bulk-insert Firestore documents",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: no command specified", errUsage)
			}
			return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "file to load environment variables from (missing file is ignored)")
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "write to an in-memory store instead of Firestore")

	root.AddCommand(newDuplicateCmd(opts, stdout, stderr), newInsertCmd(opts, stdout, stderr))
	return root
}

// setup loads the env file and installs the default logger on stderr.
func setup(opts *globalOptions, stderr io.Writer) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	logCfg, err := config.LoadLogging()
	if err != nil {
		return err
	}
	logger, err := logCfg.NewLogger(stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newDuplicateCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate",
		Short: "Copy SOURCE_DOC_ID in COLLECTION_PATH NUM_OF_DUPLICATES times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDuplicate()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			client, err := gcp.NewFirestoreClient(ctx, cfg.ClientConfig())
			if err != nil {
				return err
			}
			defer client.Close()

			var store services.DocumentStore = gcp.NewFirestoreStore(client)
			if opts.dryRun {
				slog.Warn("Dry run: duplicates are kept in memory and not written to Firestore.")
				store = memstore.NewOverlay(store)
			}

			_, err = services.NewDuplicator(store, stdout, stderr).Process(ctx, cfg.Request())
			return err
		},
	}
}

func newInsertCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "insert",
		Short: "Insert the documents of JSON_FILE_PATH into COLLECTION_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadInsert()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			storageClient, err := openSourceClient(ctx, cfg)
			if err != nil {
				return err
			}
			if storageClient != nil {
				defer storageClient.Close()
			}

			store, closeStore, err := openStore(ctx, cfg.Firestore, opts.dryRun)
			if err != nil {
				return err
			}
			defer closeStore()

			req := cfg.Request()
			fmt.Fprintln(stdout, "Starting insertion of documents from JSON file...")
			fmt.Fprintln(stdout)
			fmt.Fprintf(stdout, "Collection: %s\n", req.CollectionPath)
			fmt.Fprintf(stdout, "JSON File: %s\n", req.JSONFilePath)
			fmt.Fprintf(stdout, "Use slug as ID: %t\n\n", req.UseSlugAsID)
			fmt.Fprintln(stdout, strings.Repeat("=", 50))
			fmt.Fprintln(stdout)

			inserter := services.NewInserter(store, stdout, stderr, gcp.NewSourceOpener(storageClient))
			if _, err := inserter.Process(ctx, req); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "\n✓ Successfully completed insertion!")
			return nil
		},
	}
}

// openSourceClient returns a storage client when the JSON source lives in
// Cloud Storage, after checking that the object exists.
func openSourceClient(ctx context.Context, cfg *config.Insert) (*storage.Client, error) {
	if !gcp.IsGCSURI(cfg.JSONFilePath) {
		return nil, nil
	}
	client, err := gcp.NewStorageClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, err
	}
	exists, err := gcp.ObjectExists(ctx, client, cfg.JSONFilePath)
	if err != nil {
		client.Close()
		return nil, err
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("%w: JSON file not found: %s", config.ErrConfig, cfg.JSONFilePath)
	}
	return client, nil
}

// openStore returns the Firestore-backed store, or an in-memory one for dry runs.
func openStore(ctx context.Context, cfg config.Firestore, dryRun bool) (services.DocumentStore, func(), error) {
	if dryRun {
		slog.Warn("Dry run: documents are kept in memory and not written to Firestore.")
		return memstore.New(), func() {}, nil
	}
	client, err := gcp.NewFirestoreClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, nil, err
	}
	return gcp.NewFirestoreStore(client), closeClient(client), nil
}

func closeClient(client *firestore.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close Firestore client", "error", err)
		}
	}
}
