package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SteelSys/internal/importer"
)

var (
	dxfProfile   string
	dxfRoundTo   float64
	dxfMinLength float64
	dxfJSON      bool
)

var importDXFCmd = &cobra.Command{
	Use:   "import-dxf <file>",
	Short: "List the profile pieces found in a DXF drawing",
	Long: `Read a DXF drawing and list the pieces it describes.

Lines, arcs and open polylines become pieces. The layer name is the profile;
entities on layer "0" use --profile. Equal lengths of the same profile are
counted together.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportDXF,
}

func init() {
	importDXFCmd.Flags().StringVarP(&dxfProfile, "profile", "p", "", "Profile for entities on layer 0")
	importDXFCmd.Flags().Float64Var(&dxfRoundTo, "round", 0.1, "Length resolution in mm")
	importDXFCmd.Flags().Float64Var(&dxfMinLength, "min-length", 1, "Ignore entities shorter than this (mm)")
	importDXFCmd.Flags().BoolVar(&dxfJSON, "json", false, "Print the pieces as JSON")
}

func runImportDXF(cmd *cobra.Command, args []string) error {
	path := args[0]
	res := importer.ImportDXF(path, importer.DXFOptions{
		DefaultProfile: dxfProfile,
		RoundTo:        dxfRoundTo,
		MinLength:      dxfMinLength,
	})
	if err := checkImport(path, res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dxfJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Pieces)
	}

	t := newTable("Profile", "Label", "Length", "Qty")
	total := 0
	for _, p := range res.Pieces {
		t.Row(p.Profile, p.Label, mm(p.Length), strconv.Itoa(p.Quantity))
		total += p.Quantity
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d pieces in %d lengths\n", total, len(res.Pieces))
	return nil
}
