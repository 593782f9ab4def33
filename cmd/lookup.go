package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cnpj-cli/internal/export"
)

// exampleCNPJ is a well-known active registration, handy for smoke tests.
const exampleCNPJ = "02558157000162"

var (
	lookupExample bool
	lookupFormat  string
	lookupOut     string
	lookupSave    bool
	lookupWait    bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [cnpj]",
	Short: "Resolve a CNPJ across all registry providers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier := exampleCNPJ
		if len(args) == 1 {
			identifier = args[0]
		} else if !lookupExample {
			return eris.New("a CNPJ argument or --example is required")
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		// Interactive triggers go through the gate; --wait sleeps out the
		// backoff instead of declining.
		for {
			ok, wait := env.Engine.Throttle().Allow(time.Now())
			if ok {
				break
			}
			if !lookupWait {
				fmt.Fprintf(cmd.OutOrStdout(), "throttled: retry in %.1fs\n", wait.Seconds())
				return nil
			}
			time.Sleep(wait)
		}

		res, err := env.Engine.Lookup(ctx, identifier)
		if err != nil && !res.AllFailed {
			return err
		}

		if lookupSave {
			if saved, serr := env.Store.SaveLookup(ctx, res); serr != nil {
				zap.L().Warn("saving lookup failed", zap.Error(serr))
			} else {
				zap.L().Info("lookup saved", zap.String("id", saved.ID))
			}
		}

		switch lookupFormat {
		case "json":
			if err := export.WriteJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		case "csv":
			out := cmd.OutOrStdout()
			if lookupOut != "" {
				f, ferr := os.Create(lookupOut)
				if ferr != nil {
					return eris.Wrapf(ferr, "creating %s", lookupOut)
				}
				defer f.Close()
				out = f
			}
			if err := export.WriteCSV(out, res); err != nil {
				return err
			}
		case "xlsx":
			path := lookupOut
			if path == "" {
				path = res.Identifier + ".xlsx"
			}
			if err := export.WriteXLSX(path, res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		default:
			return eris.Errorf("unknown output format %q", lookupFormat)
		}

		if res.AllFailed {
			return eris.New("no data available: all providers failed")
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupExample, "example", false, "resolve the built-in example CNPJ")
	lookupCmd.Flags().StringVarP(&lookupFormat, "output", "o", "json", "output format: json, csv or xlsx")
	lookupCmd.Flags().StringVar(&lookupOut, "out", "", "output file path (csv/xlsx)")
	lookupCmd.Flags().BoolVar(&lookupSave, "save", false, "persist the result to the lookup history store")
	lookupCmd.Flags().BoolVar(&lookupWait, "wait", false, "sleep out throttle backoff instead of declining")
	rootCmd.AddCommand(lookupCmd)
}
