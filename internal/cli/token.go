package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/database"
	"github.com/suteetoe/shopstock/pkg/jwtutil"
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token <username>",
	Short: "Print a signed API token for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close(db)

		account, err := service.NewDirectory(db).AccountByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !account.IsActive {
			return fmt.Errorf("account %q is disabled", account.Username)
		}

		jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
			SigningKey:      cfg.JWT.SigningKey,
			ExpirationHours: cfg.JWT.ExpirationHours,
		})
		token, err := jwt.GenerateToken(account.ID, account.Username, account.ShopID, account.IsStaff)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)
}
