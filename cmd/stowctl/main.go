// stowctl — operator CLI for the stowage store.
//
// Works directly against the JSON snapshot, so it can run on the same data
// directory as stowd (when the service is stopped) or on a copy.
//
// Build:
//
//	go build -o stowctl ./cmd/stowctl
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/orbitlogix/stowage/internal/audit"
	"github.com/orbitlogix/stowage/internal/export"
	"github.com/orbitlogix/stowage/internal/model"
	"github.com/orbitlogix/stowage/internal/service"
	"github.com/orbitlogix/stowage/internal/store"
)

var (
	dataDir string
	userID  string
)

func main() {
	root := &cobra.Command{
		Use:           "stowctl",
		Short:         "Operate the stowage store from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", "data", "data directory")
	root.PersistentFlags().StringVar(&userID, "user", "", "user id recorded in the audit log")

	root.AddCommand(
		importItemsCmd(),
		importContainersCmd(),
		planCmd(),
		searchCmd(),
		simulateCmd(),
		wasteCmd(),
		exportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openService opens the store and audit log under the data directory.
func openService() (*service.Service, error) {
	st, err := store.Open(filepath.Join(dataDir, "stowage.json"))
	if err != nil {
		return nil, err
	}
	al, err := audit.Open(filepath.Join(dataDir, "audit.json"))
	if err != nil {
		return nil, err
	}
	return service.New(st, al, nil), nil
}

func importItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-items <file.csv>",
		Short: "Import an item manifest CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			count, rowErrors := svc.ImportItems(f, userID)
			fmt.Printf("imported %d items\n", count)
			for _, e := range rowErrors {
				fmt.Printf("  row %d: %s\n", e.Row, e.Message)
			}
			return nil
		},
	}
}

func importContainersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-containers <file.csv>",
		Short: "Import a container manifest CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			count, rowErrors := svc.ImportContainers(f, userID)
			fmt.Printf("imported %d containers\n", count)
			for _, e := range rowErrors {
				fmt.Printf("  row %d: %s\n", e.Row, e.Message)
			}
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Plan placements for every unplaced item across all containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			var unplaced []model.Item
			for _, it := range svc.Store().Items() {
				if !it.Placed() && !it.IsWaste {
					unplaced = append(unplaced, it)
				}
			}
			result, err := svc.PlanPlacement(unplaced, svc.Store().Containers(), userID)
			if err != nil {
				return err
			}

			for _, p := range result.Placements {
				s, e := p.Position.Start, p.Position.End
				fmt.Printf("%s -> %s (%g,%g,%g)-(%g,%g,%g)\n",
					p.ItemID, p.ContainerID,
					s.Width, s.Depth, s.Height, e.Width, e.Depth, e.Height)
			}
			for _, it := range result.Rearrangements {
				fmt.Printf("%s: no fit\n", it.ItemID)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "search <itemId|name>",
		Short: "Locate an item and print its retrieval steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			var result service.SearchResult
			if byName {
				result, err = svc.Search("", args[0])
			} else {
				result, err = svc.Search(args[0], "")
			}
			if err != nil {
				return err
			}
			if !result.Found {
				fmt.Println("not found")
				return nil
			}

			it := result.Item
			if it.Placed() {
				s := it.Position.Start
				fmt.Printf("%s (%s) in %s zone %s at (%g,%g,%g)\n",
					it.ItemID, it.Name, it.ContainerID, result.Zone,
					s.Width, s.Depth, s.Height)
			} else {
				fmt.Printf("%s (%s) unplaced\n", it.ItemID, it.Name)
			}
			for _, step := range result.RetrievalSteps {
				fmt.Printf("  %d. %s %s (%s)\n", step.Step, step.Action, step.ItemName, step.ItemID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "search by item name instead of id")
	return cmd
}

func simulateCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Advance the simulation clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			result, err := svc.Simulate(days, model.Date{}, nil)
			if err != nil {
				return err
			}
			fmt.Printf("now %s: %d expired, %d depleted\n",
				result.NewDate, len(result.Expired), len(result.Depleted))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to advance")
	return cmd
}

func wasteCmd() *cobra.Command {
	var undocking string
	var maxWeight float64
	var manifestPDF, labelsPDF string
	cmd := &cobra.Command{
		Use:   "waste",
		Short: "Identify waste and plan the weight-bounded return",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			if undocking == "" {
				waste, err := svc.IdentifyWaste()
				if err != nil {
					return err
				}
				for _, it := range waste {
					fmt.Printf("%s (%s): %s\n", it.ItemID, it.Name, it.Reason)
				}
				return nil
			}

			plan, err := svc.PlanReturn(undocking, svc.Store().CurrentDate(), maxWeight)
			if err != nil {
				return err
			}
			for _, m := range plan.Moves {
				fmt.Printf("%d. %s: %s -> %s\n", m.Step, m.ItemName, m.FromContainer, m.ToContainer)
			}
			fmt.Printf("total %.2f kg, %.0f cm3\n", plan.Manifest.TotalWeight, plan.Manifest.TotalVolume)

			if manifestPDF != "" {
				if err := export.ExportManifestPDF(manifestPDF, plan); err != nil {
					return err
				}
				fmt.Println("manifest written to", manifestPDF)
			}
			if labelsPDF != "" {
				if err := export.ExportReturnLabels(labelsPDF, plan); err != nil {
					return err
				}
				fmt.Println("labels written to", labelsPDF)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&undocking, "undocking", "", "undocking container id (omit to just list waste)")
	cmd.Flags().Float64Var(&maxWeight, "max-weight", 100, "maximum return mass in kg")
	cmd.Flags().StringVar(&manifestPDF, "manifest-pdf", "", "write the return manifest PDF here")
	cmd.Flags().StringVar(&labelsPDF, "labels-pdf", "", "write QR return labels PDF here")
	return cmd
}

func exportCmd() *cobra.Command {
	var xlsx, dxfPath, containerID string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current arrangement",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}

			if xlsx != "" {
				if err := export.ExportArrangementXLSX(xlsx, svc.Store().Items()); err != nil {
					return err
				}
				fmt.Println("arrangement written to", xlsx)
				return nil
			}
			if dxfPath != "" {
				if containerID == "" {
					return fmt.Errorf("--container is required with --dxf")
				}
				c, err := svc.Store().Container(containerID)
				if err != nil {
					return err
				}
				if err := export.ExportFaceViewDXF(dxfPath, c, svc.Store().Items()); err != nil {
					return err
				}
				fmt.Println("face view written to", dxfPath)
				return nil
			}
			return svc.ExportArrangement(os.Stdout)
		},
	}
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write an XLSX workbook here instead of CSV to stdout")
	cmd.Flags().StringVar(&dxfPath, "dxf", "", "write a DXF face view here")
	cmd.Flags().StringVar(&containerID, "container", "", "container id for the DXF face view")
	return cmd
}
