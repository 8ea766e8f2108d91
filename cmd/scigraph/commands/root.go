package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/SciGraph/SciGraph-sub002/pkg/config"
	"github.com/SciGraph/SciGraph-sub002/pkg/engine"
	"github.com/SciGraph/SciGraph-sub002/pkg/version"
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"graph":        "graph",
	"store":        "store.backend",
	"store-path":   "store.path",
	"bucket":       "store.bucket",
	"table":        "store.table",
	"endpoint":     "store.endpoint",
	"region":       "store.region",
	"exclude":      "index.exclude",
	"workers":      "index.workers",
	"batch-size":   "index.batch_size",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"no-telemetry": "telemetry.disabled",
}

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
}

// open builds an engine from the loaded configuration. Logs go to stderr
// so stdout carries only command output.
func (a *app) open(cmd *cobra.Command, opts ...engine.Option) (*engine.Engine, error) {
	base := []engine.Option{
		engine.WithConfig(a.cfg),
		engine.WithLogger(engine.NewLogger(cmd.ErrOrStderr(), a.cfg.Log)),
	}
	return engine.New(cmd.Context(), append(base, opts...)...)
}

func (a *app) loadConfig() error {
	file := a.cfgFile
	if file == "" {
		if home, err := os.UserHomeDir(); err == nil {
			file = filepath.Join(home, ".scigraph.yaml")
		}
	}
	cfg, err := config.Load(a.v, file)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "scigraph",
		Short: "Reachability index for ontology graphs",
		Long: `SciGraph - ontology graph reachability

Build a 2-hop reachability index over a graph and answer
"can A reach B" questions without walking the graph.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default $HOME/.scigraph.yaml)")
	pf.String("graph", "", "YAML graph file")
	pf.String("store", config.BackendBadger, "List store: memory, badger, local, s3, dynamodb")
	pf.String("store-path", config.DefaultStorePath, "Directory for badger and local stores")
	pf.String("bucket", "", "S3 bucket")
	pf.String("table", config.DefaultTable, "DynamoDB table")
	pf.String("endpoint", "", "AWS endpoint override (LocalStack)")
	pf.String("region", config.DefaultRegion, "AWS region")
	pf.String("exclude", "", "CEL expression hiding nodes from the index")
	pf.Int("workers", 1, "Concurrent hub sweeps")
	pf.Int("batch-size", config.DefaultBatchSize, "Node records per storage commit")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "json", "Log format: json or text")
	pf.Bool("no-telemetry", false, "Disable OpenTelemetry tracing")
	for flag, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd.OutOrStdout(), cmd)
	})

	root.AddCommand(newIndexCmd(a), newQueryCmd(a), newGraphCmd(a))
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func renderHelp(w io.Writer, cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %s", version.AppName, version.Current)))
	fmt.Fprintln(w, cmd.Short)

	fmt.Fprintln(w, titleStyle.Render("USAGE"))
	fmt.Fprintf(w, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(w, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(w, flagStyle.Render(output))
	})
	fmt.Fprintln(w)
}
