package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SteelSys/internal/importer"
	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/jobs"
	"github.com/piwi3910/SteelSys/internal/model"
)

const shutdownTimeout = 30 * time.Second

var jobsFile string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run and inspect background jobs",
	Long: `Run and inspect background jobs.

Jobs are recorded in the Badger store configured by badger_dir. Kinds:
  optimize             payload {"stock": [...], "remnants": [...], "demand": [...]}
  recalculate-weights  no payload, uses the inventory
  parse-drawing        payload {"path": "frame.dxf", "default_profile": "HEA200"}`,
}

var jobsRunCmd = &cobra.Command{
	Use:   "run <kind> [payload.json]",
	Short: "Run a job and print its result",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runJobsRun,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the weight and value of the available inventory",
	Args:  cobra.NoArgs,
	RunE:  runWeights,
}

func init() {
	jobsCmd.PersistentFlags().StringVarP(&jobsFile, "file", "f", "", "JSON inventory file instead of the database")
	weightsCmd.Flags().StringVarP(&jobsFile, "file", "f", "", "JSON inventory file instead of the database")

	jobsCmd.AddCommand(jobsRunCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
}

// startRunner opens the job store and starts a runner with every handler
// registered. The returned stop function drains the queue and closes the store.
func startRunner(repo inventory.Repository) (*jobs.Runner, func() error, error) {
	store, err := jobs.OpenBadgerStore(appCfg.BadgerDir, logger)
	if err != nil {
		return nil, nil, err
	}
	runner := jobs.NewRunner(store, appCfg.Workers, appCfg.QueueSize, logger.Named("jobs"))
	runner.Handle(jobs.KindOptimize, jobs.OptimizeHandler(appCfg.Settings()))
	runner.Handle(jobs.KindRecalculateWeights, jobs.RecalculateWeightsHandler(repo, catalog))
	runner.Handle(jobs.KindParseDrawing, jobs.ParseDrawingHandler(importer.DXFOptions{}))

	stop := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(runner.Close(ctx), store.Close())
	}
	return runner, stop, nil
}

// runJob submits one job, waits for it and returns the finished job.
func runJob(ctx context.Context, kind jobs.Kind, payload any) (jobs.Job, error) {
	inv, err := openInventory(ctx, jobsFile)
	if err != nil {
		return jobs.Job{}, err
	}
	defer inv.close()

	runner, stop, err := startRunner(inv.repo)
	if err != nil {
		return jobs.Job{}, err
	}
	job, err := runner.Submit(ctx, kind, payload)
	if err == nil {
		logger.Info("Job submitted", zap.String("id", job.ID), zap.String("kind", string(kind)))
		job, err = runner.Wait(ctx, job.ID)
	}
	return job, errors.Join(err, stop())
}

func runJobsRun(cmd *cobra.Command, args []string) error {
	var payload json.RawMessage
	if len(args) == 2 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", args[1])
		}
		payload = data
	}

	job, err := runJob(cmd.Context(), jobs.Kind(args[0]), payload)
	if err != nil {
		return err
	}
	return printJob(cmd, job)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	store, err := jobs.OpenBadgerStore(appCfg.BadgerDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	t := newTable("ID", "Kind", "State", "Created", "Took", "Error")
	for _, j := range list {
		took := ""
		if j.State.Done() && !j.StartedAt.IsZero() {
			took = j.FinishedAt.Sub(j.StartedAt).Round(time.Millisecond).String()
		}
		t.Row(j.ID, string(j.Kind), string(j.State), j.CreatedAt.Local().Format(time.DateTime), took, j.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	store, err := jobs.OpenBadgerStore(appCfg.BadgerDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJob(cmd, job)
}

func printJob(cmd *cobra.Command, job jobs.Job) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(job); err != nil {
		return err
	}
	if job.State == jobs.StateFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	return nil
}

func runWeights(cmd *cobra.Command, args []string) error {
	job, err := runJob(cmd.Context(), jobs.KindRecalculateWeights, nil)
	if err != nil {
		return err
	}
	if job.State == jobs.StateFailed {
		return fmt.Errorf("weight calculation failed: %s", job.Error)
	}
	var weights []model.InventoryWeight
	if err := job.DecodeResult(&weights); err != nil {
		return err
	}

	t := newTable("Profile", "Bars", "Bar length", "Remnants", "Remnant length", "kg", "Value")
	for _, w := range weights {
		t.Row(w.Profile, fmt.Sprint(w.StockBars), mm(w.StockLength), fmt.Sprint(w.RemnantCount),
			mm(w.RemnantLength), w.TotalKg.StringFixed(1), w.TotalValue.StringFixed(2))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
