package main

import (
	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/internal/vcreport"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analysis jobs over application databases",
}

var vcOptions = vcreport.DefaultOptions()

var vcReportCmd = &cobra.Command{
	Use:   "vc",
	Short: "Find mispriced RP-search results served from recommended shops",
	Long: `vc loads recent RP-search value-checker logs whose three top offers share a
product but whose prices jump by more than 20% between the first two offers,
keeps the configured countries and categories, joins the offers with their
shops and prints the logs whose first two offers come from recommended shops.
The last line holds the matched and kept counts. MySQL only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, err := resolve("")
		if err != nil {
			return err
		}

		var report *vcreport.Report
		err = target.Server.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			report, err = vcreport.Run(cmd.Context(), target.Server, conn, vcOptions)
			return err
		})
		if err != nil {
			return err
		}
		logger.Info("value-checker report", "fetched", report.Fetched, "matched", report.Matched, "kept", len(report.Logs))
		return report.WriteJSON(cmd.OutOrStdout())
	},
}

func init() {
	f := vcReportCmd.Flags()
	f.StringVar(&vcOptions.Schema, "schema", vcOptions.Schema, "schema holding the log and shop tables")
	f.IntVar(&vcOptions.Days, "days", vcOptions.Days, "look back this many days")
	f.IntVar(&vcOptions.Limit, "limit", vcOptions.Limit, "maximum number of logs to load")
	f.StringSliceVar(&vcOptions.Countries, "country", vcOptions.Countries, "countries to keep")
	f.Int64SliceVar(&vcOptions.Categories, "category", vcOptions.Categories, "category ids to keep")

	reportCmd.AddCommand(vcReportCmd)
	rootCmd.AddCommand(reportCmd)
}
