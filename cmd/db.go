package main

import (
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Check, create and drop databases",
}

var dbExistsCmd = &cobra.Command{
	Use:   "exists NAME",
	Short: "Report whether a database exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolve("")
		if err != nil {
			return err
		}
		return target.Server.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			exists, err := target.Server.ExistsDatabase(cmd.Context(), conn, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		})
	},
}

var dbCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolve("")
		if err != nil {
			return err
		}
		conn, err := target.Server.Connect(cmd.Context(), target.User)
		logger.LogConnectionEvent("connect", target.Name, target.Server.Dialect().Name(), err)
		if err != nil {
			return err
		}
		// CreateDatabase closes conn.
		if _, err := target.Server.CreateDatabase(cmd.Context(), conn, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' created\n", args[0])
		return nil
	},
}

var dbDropIfExists bool

var dbDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolve("")
		if err != nil {
			return err
		}
		conn, err := target.Server.Connect(cmd.Context(), target.User)
		logger.LogConnectionEvent("connect", target.Name, target.Server.Dialect().Name(), err)
		if err != nil {
			return err
		}
		if _, err := target.Server.DropDatabase(cmd.Context(), conn, args[0], dbDropIfExists); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database '%s' dropped\n", args[0])
		return nil
	},
}

func init() {
	dbDropCmd.Flags().BoolVar(&dbDropIfExists, "if-exists", false, "do not fail when the database is missing")
	dbCmd.AddCommand(dbExistsCmd, dbCreateCmd, dbDropCmd)
	rootCmd.AddCommand(dbCmd)
}
