// Command gridctl lists, prints and exports datasets without the web UI.
//
//	gridctl datasets
//	gridctl export products --filter name=bolt --sort price --desc --out ./exports
//	gridctl show products --sort qty --limit 20
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/source"
)

// app holds the command dependencies so tests can swap them.
type app struct {
	out        io.Writer
	errOut     io.Writer
	loadConfig func() (*config.Config, error)
	openSource func(ctx context.Context, cfg config.SourceConfig) (source.Source, error)
	now        func() time.Time

	datasetsPath string
	logLevel     string
}

func newApp() *app {
	return &app{
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: config.Load,
		openSource: source.Open,
		now:        time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gridctl",
		Short: "Inspect and export gridview datasets",
		Long: `gridctl reads the same datasets file and record source as the gridview
server. Exports apply filters and sort exactly like the interactive table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(a.errOut, a.logLevel, "text"))
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.datasetsPath, "datasets", "", "datasets YAML file (default: $DATASETS_PATH or datasets.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newDatasetsCmd(a), newExportCmd(a), newShowCmd(a))
	return root
}

// resolveDatasetsPath prefers the flag, then the environment.
func (a *app) resolveDatasetsPath() string {
	if a.datasetsPath != "" {
		return a.datasetsPath
	}
	if p := os.Getenv("DATASETS_PATH"); p != "" {
		return p
	}
	return "datasets.yaml"
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
