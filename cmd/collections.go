package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cnpj-cli/internal/cnpj"
	"github.com/sells-group/cnpj-cli/internal/model"
)

var (
	expensesFrom string
	expensesTo   string
)

// collectionCmd builds one paged-endpoint subcommand. Every such command
// validates the identifier, goes through the engine's cache and dump
// fallback, and prints the accumulated items as JSON.
func collectionCmd(use, short, provider, endpoint string, fetch func(*Env, context.Context, string) (model.PagedCollection, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <cnpj>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cnpj.Normalize(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			env, err := initEnv(ctx, cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			coll, err := env.Engine.Collection(ctx, provider, endpoint, id,
				func(ctx context.Context) (model.PagedCollection, error) {
					return fetch(env, ctx, id)
				})
			if err != nil {
				return err
			}

			return printCollection(cmd, coll)
		},
	}
}

func printCollection(cmd *cobra.Command, coll model.PagedCollection) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(coll); err != nil {
		return eris.Wrap(err, "encoding collection")
	}
	if coll.Truncated {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: result truncated at the page ceiling")
	}
	return nil
}

var expensesCmd = &cobra.Command{
	Use:   "expenses <cnpj>",
	Short: "Federal spending paid to the supplier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cnpj.Normalize(args[0])
		if err != nil {
			return err
		}

		var from, to time.Time
		if expensesFrom != "" {
			if from, err = time.Parse("2006-01-02", expensesFrom); err != nil {
				return eris.Wrap(err, "parsing --from")
			}
		}
		if expensesTo != "" {
			if to, err = time.Parse("2006-01-02", expensesTo); err != nil {
				return eris.Wrap(err, "parsing --to")
			}
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		coll, err := env.Engine.Collection(ctx, "transparencia", "/despesas", id,
			func(ctx context.Context) (model.PagedCollection, error) {
				return env.Transparencia.Expenses(ctx, id, from, to)
			})
		if err != nil {
			return err
		}
		return printCollection(cmd, coll)
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd(
		"contracts", "Federal contracts held by the supplier",
		"transparencia", "/contratos/cpf-cnpj",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.Transparencia.Contracts(ctx, id)
		}))
	rootCmd.AddCommand(collectionCmd(
		"sanctions", "Sanction records (CEIS/CNEP) for the supplier",
		"transparencia", "/sancoes",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.Transparencia.Sanctions(ctx, id)
		}))
	rootCmd.AddCommand(collectionCmd(
		"invoices", "Electronic invoices issued to the federal government",
		"transparencia", "/notas-fiscais",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.Transparencia.Invoices(ctx, id)
		}))
	rootCmd.AddCommand(collectionCmd(
		"waivers", "Tax waivers granted to the supplier",
		"transparencia", "/renuncias-valor",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.Transparencia.Waivers(ctx, id)
		}))
	rootCmd.AddCommand(collectionCmd(
		"notices", "PNCP procurement notices naming the supplier",
		"pncp", "/v1/avisos",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.PNCP.Notices(ctx, id)
		}))
	rootCmd.AddCommand(collectionCmd(
		"awards", "PNCP contracts awarded to the supplier",
		"pncp", "/v1/contratos",
		func(env *Env, ctx context.Context, id string) (model.PagedCollection, error) {
			return env.PNCP.Contracts(ctx, id)
		}))

	expensesCmd.Flags().StringVar(&expensesFrom, "from", "", "window start (YYYY-MM-DD, default 24 months back)")
	expensesCmd.Flags().StringVar(&expensesTo, "to", "", "window end (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(expensesCmd)
}
