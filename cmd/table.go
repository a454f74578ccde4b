package main

import (
	"fmt"
	"strings"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

var (
	tableDatabase string
	tableFields   []string
	tableIfExists bool
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Check, create and drop tables",
}

var tableExistsCmd = &cobra.Command{
	Use:   "exists NAME",
	Short: "Report whether a table exists in the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, db, err := resolveDatabase(tableDatabase)
		if err != nil {
			return err
		}
		return db.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			exists, err := db.ExistsTable(cmd.Context(), conn, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		})
	},
}

var tableCreateCmd = &cobra.Command{
	Use:   "create NAME --field 'id INT PRIMARY KEY' [--field ...]",
	Short: "Create a table from column definitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, db, err := resolveDatabase(tableDatabase)
		if err != nil {
			return err
		}
		err = db.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			_, err := db.CreateTable(cmd.Context(), conn, args[0], tableFields)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Table '%s' created with %s\n", args[0], strings.Join(tableFields, ", "))
		return nil
	},
}

var tableDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, db, err := resolveDatabase(tableDatabase)
		if err != nil {
			return err
		}
		err = db.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			_, err := db.DropTable(cmd.Context(), conn, args[0], tableIfExists)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Table '%s' dropped\n", args[0])
		return nil
	},
}

func init() {
	tableCmd.PersistentFlags().StringVarP(&tableDatabase, "database", "d", "", "database holding the table (default: the profile database)")
	// StringArray keeps commas inside definitions such as DECIMAL(4,1).
	tableCreateCmd.Flags().StringArrayVarP(&tableFields, "field", "f", nil, "column definition, repeatable")
	_ = tableCreateCmd.MarkFlagRequired("field")
	tableDropCmd.Flags().BoolVar(&tableIfExists, "if-exists", false, "do not fail when the table is missing")

	tableCmd.AddCommand(tableExistsCmd, tableCreateCmd, tableDropCmd)
	rootCmd.AddCommand(tableCmd)
}
