package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/dataset"
)

func newDatasetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List configured datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDatasets()
		},
	}
}

func (a *app) runDatasets() error {
	defs, err := a.loadDatasets()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tGROUP\tTITLE\tCOLUMNS")
	for _, def := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", def.Key, def.Group, def.DisplayTitle(), len(def.Columns))
	}
	return tw.Flush()
}

// loadDatasets reads the datasets file into the registry and returns the
// definitions in display order.
func (a *app) loadDatasets() ([]dataset.Definition, error) {
	defs, err := dataset.LoadFile(a.resolveDatasetsPath())
	if err != nil {
		return nil, err
	}
	dataset.Clear()
	if err := dataset.RegisterAll(defs); err != nil {
		return nil, err
	}
	return dataset.All(), nil
}
