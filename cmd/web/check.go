package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/httpsredirect/internal/tenant"
)

var checkGlobalOnly bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate redirect settings and exit",
	Long: `Load the global config and parse the https_redirect section, then
parse every active site's HttpsRedirect: rows layered over it.  Exits
non-zero on the first malformed value.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, _, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "global https_redirect: ok")
		if checkGlobalOnly {
			return nil
		}

		db, err := openGlobalDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := tenant.ValidateAll(ctx, db, cfg.RedirectSource()); err != nil {
			return err
		}
		fmt.Fprintln(out, "site overrides: ok")
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkGlobalOnly, "global-only", false,
		"skip the database and validate only the global section")
}
