package commands

import (
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodecfg/nodecfg/errors"
	"github.com/nodecfg/nodecfg/graph"
	"github.com/nodecfg/nodecfg/schema"
)

// SchemaCmd groups schema inspection subcommands
var SchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and validate schema definitions",
	Long: `Inspect class-based schema definitions.

Examples:
  nodecfg schema show pipeline.schema              # Parsed classes and fields
  nodecfg schema templates pipeline.schema         # Derived node templates
  nodecfg schema ls                                # Configured schemas`,
}

var (
	schemaRefType   string
	schemaRootClass string
)

var schemaShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the classes parsed from a schema file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaShow,
}

var schemaTemplatesCmd = &cobra.Command{
	Use:   "templates <file>",
	Short: "Show the node templates derived from a schema file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaTemplates,
}

var schemaLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List schemas from the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runSchemaLs,
}

func init() {
	SchemaCmd.PersistentFlags().StringVar(&schemaRefType, "ref-type", "Index", "Reference/index type name")
	SchemaCmd.PersistentFlags().StringVar(&schemaRootClass, "root-class", "", "Designated root class")

	SchemaCmd.AddCommand(schemaShowCmd)
	SchemaCmd.AddCommand(schemaTemplatesCmd)
	SchemaCmd.AddCommand(schemaLsCmd)
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}

	classes, order := schema.Parse(string(source))
	if len(classes) == 0 {
		return errors.Newf("no classes found in %s", args[0])
	}

	pterm.DefaultSection.Printf("Classes in %s", args[0])
	for _, name := range order {
		cls := classes[name]
		rows := pterm.TableData{{"Field", "Type"}}
		for _, f := range cls.Fields {
			rows = append(rows, []string{f.Name, f.Type.String()})
		}
		pterm.DefaultSection.WithLevel(2).Println(name)
		if len(cls.Fields) == 0 {
			pterm.Info.Println("(no fields)")
			continue
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
	}
	pterm.Success.Printf("%d classes parsed\n", len(order))
	return nil
}

func runSchemaTemplates(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}

	log := commandLogger("schema")
	registry := schema.NewRegistry(log)
	s, err := registry.Register("inspect", string(source), schemaRefType, schemaRootClass)
	if err != nil {
		return errors.Wrap(err, "schema rejected")
	}
	catalog := graph.NewCatalog(log)
	catalog.AddSchema(s)

	for _, t := range catalog.Templates() {
		pterm.DefaultSection.WithLevel(2).Printf("%s -> %s", t.Class, t.OutputType)
		rows := pterm.TableData{{"Slot", "Type", "Multi", "Native", "Optional"}}
		for _, in := range t.Inputs {
			rows = append(rows, []string{
				in.Name,
				in.Type,
				strconv.FormatBool(in.MultiInput),
				strconv.FormatBool(in.Native),
				strconv.FormatBool(in.Optional),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
	}
	return nil
}

func runSchemaLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Schemas) == 0 {
		pterm.Info.Println("No schemas configured")
		return nil
	}

	rows := pterm.TableData{{"Name", "Path", "RefType", "Root"}}
	for _, sc := range cfg.Schemas {
		rows = append(rows, []string{sc.Name, sc.Path, sc.RefType, sc.RootClass})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
