package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/aerialtv/aerial/internal/client"
	"github.com/aerialtv/aerial/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintCollections outputs collections in the specified format
func PrintCollections(collections []store.Collection, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]store.Collection{"collections": collections})
	case FormatYAML:
		return printYAML(collections)
	case FormatTable:
		return printCollectionTable(collections)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintCollection outputs a single collection in the specified format
func PrintCollection(col *store.Collection, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(col)
	case FormatYAML:
		return printYAML(col)
	case FormatTable:
		return printCollectionTable([]store.Collection{*col})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFields outputs rule-builder field metadata in the specified format
func PrintFields(fields []client.FieldInfo, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]client.FieldInfo{"fields": fields})
	case FormatYAML:
		return printYAML(fields)
	case FormatTable:
		return printFieldTable(fields)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintPreview outputs a preview result in the specified format
func PrintPreview(result *client.PreviewResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(result)
	case FormatYAML:
		return printYAML(result)
	case FormatTable:
		fmt.Printf("Matched %d item(s) (snapshot %s)\n", result.Count, result.ETag)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Item")
		for _, item := range result.Items {
			table.Append(string(item))
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printCollectionTable(collections []store.Collection) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Kind", "Enabled", "Rule", "Updated At")

	for _, col := range collections {
		enabled := "false"
		if col.Enabled {
			enabled = "true"
		}

		rule := col.Rule
		if len(rule) > 48 {
			rule = rule[:45] + "..."
		}

		table.Append(
			col.ID,
			col.Name,
			string(col.Kind),
			enabled,
			rule,
			col.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

func printFieldTable(fields []client.FieldInfo) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Type", "Operators", "Enum Values")

	for _, f := range fields {
		ops := ""
		for i, op := range f.Operators {
			if i > 0 {
				ops += ", "
			}
			ops += op
		}
		enums := ""
		for i, v := range f.EnumValues {
			if i > 0 {
				enums += ", "
			}
			enums += v
		}
		table.Append(f.Name, f.Type, ops, enums)
	}

	return table.Render()
}
