package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suteetoe/shopstock/internal/service"
	"github.com/suteetoe/shopstock/pkg/database"
	"github.com/suteetoe/shopstock/pkg/logger"
	"go.uber.org/zap"
)

var superuser service.SuperuserInput

var superuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create the staff account and its default shop",
	Long: `Create a staff account together with a shop it owns and is assigned to.
Existing accounts and shops are reused, so the command can run on every deploy.

The password is read from --password or SHOPSTOCK_SUPERUSER_PASSWORD.`,
	RunE: createSuperuser,
}

func init() {
	rootCmd.AddCommand(superuserCmd)

	superuserCmd.Flags().StringVar(&superuser.Username, "username", "admin", "Username of the staff account")
	superuserCmd.Flags().StringVar(&superuser.Email, "email", "admin@example.com", "Email of the staff account")
	superuserCmd.Flags().StringVar(&superuser.Password, "password", "", "Password for a new account")
	superuserCmd.Flags().StringVar(&superuser.ShopName, "shop-name", "Default Shop", "Name of the default shop")
}

func createSuperuser(cmd *cobra.Command, args []string) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := migrate(db); err != nil {
		return err
	}

	in := superuser
	if in.Password == "" {
		in.Password = os.Getenv("SHOPSTOCK_SUPERUSER_PASSWORD")
	}

	res, err := service.NewDirectory(db).EnsureSuperuser(cmd.Context(), in)
	if err != nil {
		return err
	}

	logger.GetLogger().Info("Superuser ensured",
		zap.Uint("account_id", res.Account.ID),
		zap.Uint("shop_id", res.Shop.ID),
		zap.Bool("account_created", res.AccountCreated),
		zap.Bool("shop_created", res.ShopCreated),
		zap.Bool("shop_assigned", res.ShopAssigned))

	out := cmd.OutOrStdout()
	if res.AccountCreated {
		fmt.Fprintf(out, "Created superuser %q\n", res.Account.Username)
	} else {
		fmt.Fprintf(out, "Superuser %q already exists\n", res.Account.Username)
	}
	if res.ShopCreated {
		fmt.Fprintf(out, "Created shop %q\n", res.Shop.Name)
	}
	if res.ShopAssigned {
		fmt.Fprintf(out, "Assigned %q to shop %q\n", res.Account.Username, res.Shop.Name)
	}
	return nil
}
