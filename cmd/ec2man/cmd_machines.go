package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2man/internal/machines"
)

func newMachinesCommand(a *app) *cobra.Command {
	var (
		contextFilter string
		summary       bool
	)

	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List recorded machines",
		Long:  `Show the instances recorded in the machines file, optionally filtered or grouped by context tag.`,
		Example: `  ec2man machines
  ec2man machines --ctx graph
  ec2man machines --summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := machines.Read(a.cfg.Launch.MachinesFile)
			if err != nil {
				return err
			}

			if contextFilter != "" {
				records = filterByContext(records, contextFilter)
			}

			if summary {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(records))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderRecords(records))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contextFilter, "ctx", "", "Only show machines with this context tag")
	cmd.Flags().BoolVar(&summary, "summary", false, "Show instance counts per context tag")

	return cmd
}

func filterByContext(records []machines.Record, context string) []machines.Record {
	var out []machines.Record
	for _, r := range records {
		if r.Context == context {
			out = append(out, r)
		}
	}
	return out
}

func renderRecords(records []machines.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Instance ID", "Context"})
	for _, r := range records {
		tw.AppendRow(table.Row{r.InstanceID, r.Context})
	}
	return tw.Render()
}

func renderSummary(records []machines.Record) string {
	groups := machines.ByContext(records)

	contexts := make([]string, 0, len(groups))
	for ctx := range groups {
		contexts = append(contexts, ctx)
	}
	sort.Strings(contexts)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Context", "Instances"})
	for _, ctx := range contexts {
		tw.AppendRow(table.Row{ctx, strconv.Itoa(len(groups[ctx]))})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
