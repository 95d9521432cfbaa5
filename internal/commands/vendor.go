package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/greenbook-dev/greenbook/internal/model"
)

func newVendorCommand() *cobra.Command {
	vendorCmd := &cobra.Command{
		Use:   "vendor",
		Short: "Vendor directory operations",
	}
	vendorCmd.AddCommand(newVendorListCommand())
	vendorCmd.AddCommand(newVendorAddCommand())
	return vendorCmd
}

func newVendorListCommand() *cobra.Command {
	var booksDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vendors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTAX ID\tPHONE\tEMAIL")
			for _, v := range env.vendors.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.TaxID, v.Phone, v.Email)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	return cmd
}

func newVendorAddCommand() *cobra.Command {
	var booksDir string
	var vendor model.Vendor

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			added := env.vendors.Add(vendor)
			if err := env.vendors.Save(env.root); err != nil {
				return err
			}
			fmt.Printf("Added vendor %s (%s)\n", added.Name, added.ID)
			env.snapshot(fmt.Sprintf("vendor: add %s", added.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	cmd.Flags().StringVar(&vendor.Name, "name", "", "vendor name (required)")
	cmd.Flags().StringVar(&vendor.TaxID, "tax-id", "", "tax ID")
	cmd.Flags().StringVar(&vendor.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&vendor.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&vendor.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
