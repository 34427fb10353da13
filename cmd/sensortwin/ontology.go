package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/spf13/cobra"
)

func newOntologyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Query the sensor class hierarchy",
		Example: `  # List every class
  sensortwin ontology types

  # Which sensors may a Thermohygrometer device report?
  sensortwin ontology compatible Thermohygrometer

  # Draw synthetic readings
  sensortwin ontology generate Temperature -n 5`,
	}

	cmd.AddCommand(
		newOntologyListCommand(a, "types", "List all sensor classes", func(m *ontology.Manager) []string {
			return m.SensorTypes()
		}),
		newOntologyListCommand(a, "roots", "List the classes without superclasses", func(m *ontology.Manager) []string {
			return m.RootClasses()
		}),
		newDetailsCommand(a),
		newRelativesCommand(a, "subclasses", "List the subclasses of a class", (*ontology.Manager).Subclasses, (*ontology.Manager).AllSubclasses),
		newRelativesCommand(a, "superclasses", "List the superclasses of a class", directSuperclasses, (*ontology.Manager).AllSuperclasses),
		newCompatibleCommand(a),
		newTreeCommand(a),
		newGenerateCommand(a),
	)
	return cmd
}

func newOntologyListCommand(a *app, use, short string, list func(*ontology.Manager) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), list(m))
			return nil
		},
	}
}

func newDetailsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "details CLASS",
		Short: "Print the definition of a class as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			c, ok := m.SensorDetails(args[0])
			if !ok {
				return fmt.Errorf("unknown sensor class %q", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Name string `json:"name"`
				ontology.ClassNode
			}{Name: c.Name, ClassNode: c})
		},
	}
}

func directSuperclasses(m *ontology.Manager, name string) []string {
	c, _ := m.SensorDetails(name)
	return c.Superclass
}

func newRelativesCommand(a *app, use, short string, direct, all func(*ontology.Manager, string) []string) *cobra.Command {
	var transitive bool
	cmd := &cobra.Command{
		Use:   use + " CLASS",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			relatives := direct
			if transitive {
				relatives = all
			}
			printLines(cmd.OutOrStdout(), relatives(m, args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&transitive, "all", "a", false, "include indirect relatives")
	return cmd
}

func newCompatibleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compatible DEVICE_TYPE [SENSOR_TYPE]",
		Short: "List the sensors a device type may report, or check a single one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 2 {
				fmt.Fprintln(cmd.OutOrStdout(), m.IsSensorCompatible(args[0], args[1]))
				return nil
			}
			printLines(cmd.OutOrStdout(), m.CompatibleSensors(args[0]))
			return nil
		},
	}
}

func newTreeCommand(a *app) *cobra.Command {
	var indent string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Draw the hierarchy, one root class at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ontology.FormatHierarchy(m, indent))
			return nil
		},
	}
	cmd.Flags().StringVar(&indent, "indent", "  ", "indentation of each level")
	return cmd
}

func newGenerateCommand(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate CLASS",
		Short: "Draw synthetic readings of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			m, err := a.loadOntology(cmd.Context())
			if err != nil {
				return err
			}
			unit := ""
			if c, ok := m.SensorDetails(args[0]); ok {
				unit = c.CanonicalUnit()
			}
			for range count {
				v, ok := m.GenerateValue(args[0])
				if !ok {
					return fmt.Errorf("class %q declares no bounds to generate values within", args[0])
				}
				line := strconv.FormatFloat(v, 'f', -1, 64)
				if unit != "" {
					line += " " + unit
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of readings")
	return cmd
}
