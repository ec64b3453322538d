package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/internal/service"
)

func salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Inspect the sales ledger",
	}
	cmd.AddCommand(salesReportCmd())
	cmd.AddCommand(salesSummaryCmd())
	return cmd
}

func salesReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "report [period]",
		Short:     "Print completed sales grouped by period",
		Long:      "Print completed sales grouped by period: daily, weekly, monthly or yearly.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily", "weekly", "monthly", "yearly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sales, closeFn, err := openSalesService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			buckets, err := sales.Aggregate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeBuckets(cmd.OutOrStdout(), buckets)
		},
	}
}

func salesSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print lifetime revenue per currency and order count",
		RunE: func(cmd *cobra.Command, args []string) error {
			sales, closeFn, err := openSalesService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := sales.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), summary)
		},
	}
}

func openSalesService(cmd *cobra.Command) (service.SalesService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewSalesService(repository.NewPostgresSaleRepository(db), nil), db.Close, nil
}

func writeBuckets(w io.Writer, buckets []domain.SalesBucket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PERIOD\tCURRENCY\tORDERS\tTOTAL\t")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", b.Label, b.Currency, b.Orders, b.TotalAmount.StringFixed(2))
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, summary *domain.SalesSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CURRENCY\tORDERS\tREVENUE\t")
	for _, t := range summary.Revenue {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", t.Currency, t.Orders, t.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "all\t%d\t\t\n", summary.TotalOrders)
	return tw.Flush()
}
