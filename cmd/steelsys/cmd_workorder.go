package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SteelSys/internal/workorder"
)

var (
	woNumber    string
	woCustomer  string
	woProject   string
	woDemand    string
	woProfile   string
	woInventory string
	woPDF       string
	woExcel     string
	woLabels    string
)

var workOrderCmd = &cobra.Command{
	Use:   "workorder",
	Short: "Work order operations",
}

var workOrderPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a work order against the shop inventory",
	Long: `Create a work order from a demand list, optimize it against the current
inventory and commit the plan: consumed bars and remnants are marked and the
new remnants are stored. When the inventory changes while planning, the plan
is recomputed from fresh data.

Pieces that cannot be placed are listed together with a purchase suggestion.`,
	Example: `  steelsys workorder plan --number WO-2024-117 --customer "Hall 3" --demand frame.xlsx`,
	Args:    cobra.NoArgs,
	RunE:    runWorkOrderPlan,
}

func init() {
	f := workOrderPlanCmd.Flags()
	f.StringVarP(&woNumber, "number", "n", "", "Work order number")
	f.StringVar(&woCustomer, "customer", "", "Customer")
	f.StringVar(&woProject, "project", "", "Project name")
	f.StringVarP(&woDemand, "demand", "d", "", "Demand list (.csv, .xlsx or .dxf)")
	f.StringVarP(&woProfile, "profile", "p", "", "Profile for rows or drawing entities without one")
	f.StringVar(&woInventory, "inventory", "", "JSON inventory file instead of the database")
	f.StringVar(&woPDF, "pdf", "", "Write cut diagrams to this PDF")
	f.StringVar(&woExcel, "xlsx", "", "Write the cut list to this Excel workbook")
	f.StringVar(&woLabels, "labels", "", "Write QR piece labels to this PDF")
	_ = workOrderPlanCmd.MarkFlagRequired("number")
	_ = workOrderPlanCmd.MarkFlagRequired("demand")

	workOrderCmd.AddCommand(workOrderPlanCmd)
}

func runWorkOrderPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	demand, err := loadDemand(woDemand, woProfile)
	if err != nil {
		return err
	}
	parts := make([]workorder.Part, 0, len(demand))
	for _, d := range demand {
		parts = append(parts, workorder.Part{
			ID:         d.ID,
			Label:      d.Label,
			Profile:    d.Profile,
			Length:     d.Length,
			Quantity:   d.Quantity,
			DrawingRef: d.PartRef,
		})
	}
	wo := workorder.New(woNumber, woCustomer, parts...)
	wo.Project = woProject

	store, err := openInventory(ctx, woInventory)
	if err != nil {
		return err
	}
	defer store.close()

	svc := workorder.NewService(store.repo, appCfg, catalog, logger.Named("workorder"))
	res, err := svc.Plan(ctx, wo)
	if err != nil {
		return err
	}
	if err := store.save(ctx); err != nil {
		return err
	}
	logger.Info("Work order planned",
		zap.String("number", wo.Number),
		zap.String("id", wo.ID),
		zap.Int("attempts", res.Attempts))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Work order %s: %s", wo.Number, wo.Status)))
	printResult(out, res.Result)
	printPurchases(out, res.Purchases)

	return writeExports(res.Result, woPDF, woExcel, woLabels, wo.Number)
}
