package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/database"
)

var checkShopCmd = &cobra.Command{
	Use:   "check-user-shop",
	Short: "Show every account with its shop assignment",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close(db)

		report, err := service.NewDirectory(db).ShopAssignments(cmd.Context())
		if err != nil {
			return err
		}
		return printAssignments(cmd, report)
	},
}

func init() {
	rootCmd.AddCommand(checkShopCmd)
}

func printAssignments(cmd *cobra.Command, report *service.AssignmentReport) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tSTAFF\tSHOP")
	for _, line := range report.Accounts {
		shop := "-"
		if line.Shop != nil {
			shop = fmt.Sprintf("%s (%d)", line.Shop.Name, line.Shop.ID)
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", line.Account.ID, line.Account.Username, line.Account.IsStaff, shop)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d accounts, %d shops, %d without a shop\n",
		len(report.Accounts), len(report.Shops), len(report.Unassigned))
	return nil
}
