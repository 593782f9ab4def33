package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cnpj-cli/internal/store"
)

var (
	lookupsIdentifier string
	lookupsLimit      int
	lookupsOffset     int
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "List saved lookup history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		lookups, err := env.Store.ListLookups(ctx, store.LookupFilter{
			Identifier: lookupsIdentifier,
			Limit:      lookupsLimit,
			Offset:     lookupsOffset,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(lookups), "encoding lookups")
	},
}

var lookupsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one saved lookup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		l, err := env.Store.GetLookup(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(l), "encoding lookup")
	},
}

func init() {
	lookupsCmd.Flags().StringVar(&lookupsIdentifier, "cnpj", "", "filter by identifier")
	lookupsCmd.Flags().IntVar(&lookupsLimit, "limit", 0, "max rows (default 100)")
	lookupsCmd.Flags().IntVar(&lookupsOffset, "offset", 0, "rows to skip")
	lookupsCmd.AddCommand(lookupsGetCmd)
	rootCmd.AddCommand(lookupsCmd)
}
