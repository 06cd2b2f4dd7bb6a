package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bher20/copierbill/internal/auth"
	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/cron"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/notification"
	"github.com/bher20/copierbill/internal/render"
	"github.com/bher20/copierbill/internal/report"
	"github.com/bher20/copierbill/internal/storage"
)

func newComputeCmd() *cobra.Command {
	var (
		p      billing.Profile
		r      billing.Reading
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "compute",
		Short:   "Compute the charge for one copier reading",
		Example: "  copierbill compute --bw-rate 0.05 --free-bw 1000 --rental 50 --min 10 --bw 1500 --spoil 20",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := p.Validate(); err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return err
			}
			b := billing.Compute(p, r)
			f := b.Formatted()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(f)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Net B&W\t%s\n", f.NetBW)
			fmt.Fprintf(tw, "Net Color\t%s\n", f.NetColor)
			fmt.Fprintf(tw, "Chargeable B&W\t%g\n", f.ChargeableBW)
			fmt.Fprintf(tw, "Chargeable Color\t%g\n", f.ChargeableColor)
			fmt.Fprintf(tw, "Usage Charge\t$%s\n", f.UsageCharge)
			fmt.Fprintf(tw, "Applied Charge\t$%s\n", f.TotalCharge)
			fmt.Fprintf(tw, "Total Due\t$%s\n", f.TotalDue)
			return tw.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&p.Model, "model", "", "copier model")
	fl.Float64Var(&p.BWRate, "bw-rate", 0, "price per chargeable B&W copy")
	fl.Float64Var(&p.ColorRate, "color-rate", 0, "price per chargeable color copy")
	fl.Float64Var(&p.FreeBW, "free-bw", 0, "included B&W copies")
	fl.Float64Var(&p.FreeColor, "free-color", 0, "included color copies")
	fl.Float64Var(&p.RentalFee, "rental", 0, "monthly rental fee")
	fl.Float64Var(&p.MinUsageCharge, "min", 0, "minimum usage charge")
	fl.Float64Var(&r.BWReading, "bw", 0, "B&W copies this period")
	fl.Float64Var(&r.ColorReading, "color", 0, "color copies this period")
	fl.Float64Var(&r.SpoilCopies, "spoil", 0, "spoiled copies; half are credited to each counter")
	fl.BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <invoice.pdf>",
		Short: "Print the text content of a rendered invoice PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := render.ExtractText(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		f   invoice.Filter
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write invoices from the log to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := storage.Open(cmd.Context(), storageConfig(cfg), log)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := invoice.NewService(store, nil, log).List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if out == "" {
				out = report.Filename(f.Month, f.Year)
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteInvoices(file, list); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d invoices to %s\n", len(list), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.CustomerID, "customer", "", "only this customer id")
	cmd.Flags().StringVar(&f.Month, "month", "", "only this billing month")
	cmd.Flags().StringVar(&f.Year, "year", "", "only this billing year")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default "+report.Filename("<month>", "<year>")+")")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var recipient string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Email last month's invoice report once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if recipient == "" {
				recipient = cfg.Report.Recipient
			}
			if recipient == "" {
				return errors.New("no recipient: pass --to or set report.recipient")
			}

			store, err := storage.Open(cmd.Context(), storageConfig(cfg), log)
			if err != nil {
				return err
			}
			defer store.Close()

			notify := notification.NewService(store, emailFallback(cfg), log.Named("notification"))
			job := &cron.ReportJob{
				Invoices:  invoice.NewService(store, notify, log),
				Mailer:    notify,
				Recipient: recipient,
				Log:       log.Named("report"),
			}
			return job.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&recipient, "to", "", "recipient address (default report.recipient)")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for auth.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h)
			return err
		},
	}
}
