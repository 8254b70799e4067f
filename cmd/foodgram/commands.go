package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"foodgram/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateHTTP(); err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return app.Serve(cmd.Context(), ":"+cfg.HTTPPort, a.Handler(), logger)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		return a.Close()
	},
}

var importIngredientsCmd = &cobra.Command{
	Use:   "import-ingredients <file.json>",
	Short: "Load ingredients into the catalogue",
	Long: `Reads a JSON array of {"name": ..., "measurement_unit": ...} objects.
Ingredients already in the catalogue are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportIngredients(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ingredients.\n", n)
		return nil
	},
}

var (
	listUserID  int64
	listOut     string
	listArchive bool
)

var shoppingListCmd = &cobra.Command{
	Use:   "shopping-list",
	Short: "Render a user's shopping list to PDF",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listUserID <= 0 {
			return fmt.Errorf("--user is required")
		}
		if listOut == "" && !listArchive {
			return fmt.Errorf("one of --out or --archive is required")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if listArchive {
			path, err := a.ArchiveShoppingList(cmd.Context(), listUserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}

		if listOut == "" {
			return nil
		}
		f, err := os.Create(listOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", listOut, err)
		}
		doc, err := a.WriteShoppingList(cmd.Context(), listUserID, f)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", listOut, cerr)
		}
		if err != nil {
			return err
		}

		logger.Info("shopping list written",
			zap.String("path", listOut),
			zap.Int("items", doc.Items),
			zap.Int("pages", doc.Pages),
		)
		return nil
	},
}

var pruneDays int

var pruneMetricsCmd = &cobra.Command{
	Use:   "prune-metrics",
	Short: "Delete render metrics older than --days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.PruneMetrics(cmd.Context(), pruneDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d metrics.\n", n)
		return nil
	},
}

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete revocations of tokens that have expired",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.PruneRevokedTokens(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d revoked tokens.\n", n)
		return nil
	},
}

func init() {
	shoppingListCmd.Flags().Int64Var(&listUserID, "user", 0, "id of the user whose cart is rendered")
	shoppingListCmd.Flags().StringVar(&listOut, "out", "", "file to write the PDF to")
	shoppingListCmd.Flags().BoolVar(&listArchive, "archive", false, "also keep the PDF in the archive directory")

	pruneMetricsCmd.Flags().IntVar(&pruneDays, "days", 30, "keep metrics newer than this many days")
}
