// Command sensortwin queries sensor class hierarchies and runs the digital twin
// services built on them.
//
// Settings are read from sensortwin.yaml in the working directory (or the file
// given by --config) and from SENSORTWIN_* environment variables; see the
// internal/config package.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/danielorbach/go-component"
	"github.com/fatih/color"
	"github.com/go-digitaltwin/sensortwin/internal/config"
	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the state shared by all commands of one invocation.
type app struct {
	configFile string
	hierarchy  string
	verbose    bool

	settings *config.Settings
}

func newRootCommand() *cobra.Command {
	a := new(app)
	cmd := &cobra.Command{
		Use:   "sensortwin",
		Short: "Sensor ontologies and the digital twins of IoT devices",
		Long: `sensortwin answers questions about a hierarchy of sensor classes, mirrors it
into Neo4j, and keeps digital twins of IoT devices up to date with the readings
their sensors report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "read settings from this file instead of ./sensortwin.yaml")
	cmd.PersistentFlags().StringVar(&a.hierarchy, "hierarchy", "", "load the class hierarchy from this file or blob URL")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")

	cmd.AddCommand(newOntologyCommand(a))
	cmd.AddCommand(newNeo4jCommand(a))
	cmd.AddCommand(newIngestCommand(a))
	cmd.AddCommand(newSimulateCommand(a))
	return cmd
}

// setup loads the settings and injects a logger into the command's context.
func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.hierarchy != "" {
		settings.HierarchyURL = a.hierarchy
	}
	a.settings = settings

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(component.InjectLogger(ctx, logger))
	return nil
}

// loadOntology constructs the single Manager an invocation works with. Sources
// with a URL scheme are read from blob storage, anything else from the local
// file system.
func (a *app) loadOntology(ctx context.Context) (*ontology.Manager, error) {
	source := a.settings.HierarchySource()
	opts := a.settings.OntologyOptions()
	if strings.Contains(source, "://") {
		return ontology.OpenURL(ctx, source, opts...)
	}
	return ontology.LoadFile(ctx, source, opts...)
}

// printLines writes each line to w, or a placeholder if there are none.
func printLines(w io.Writer, lines []string) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
