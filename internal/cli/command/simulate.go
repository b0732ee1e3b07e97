package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/loresync/internal/cli/output"
	"github.com/yndnr/loresync/internal/scenario"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
)

// SimulateCommand runs a scenario file against an in-process coordinator.
func SimulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Aliases:   []string{"sim"},
		Usage:     "Run a scenario file and report every step's outcome",
		ArgsUsage: "<scenario.yaml>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-on-mismatch",
				Usage: "Exit 1 when a step's outcome differs from its expectation",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Append the metrics recorded during the run",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Write coordinator logs to stderr at this level (debug, info, warn, error)",
			},
		},
		Action: simulate,
	}
}

// simulation is the machine-readable result of simulate.
type simulation struct {
	*scenario.Report
	Metrics []metricSample `json:"metrics,omitempty"`
}

type metricSample struct {
	Name   string  `json:"name"`
	Labels string  `json:"labels"`
	Value  float64 `json:"value"`
}

func simulate(c *cli.Context) error {
	path, err := requireArg(c, "scenario file")
	if err != nil {
		return err
	}
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	var opts []scenario.Option
	if lvl := c.String("log-level"); lvl != "" {
		log, err := logger.New(logger.Config{Level: lvl, Format: "text", Output: c.App.ErrWriter})
		if err != nil {
			return err
		}
		opts = append(opts, scenario.WithLogger(log))
	}
	reg := prometheus.NewRegistry()
	opts = append(opts, scenario.WithMetrics(metric.New(reg)))

	rep, err := scenario.Run(c.Context, s, opts...)
	if err != nil {
		return err
	}

	result := simulation{Report: rep}
	if c.Bool("metrics") {
		if result.Metrics, err = gather(reg); err != nil {
			return err
		}
	}

	if err := render(c, result, simulationTables(result, ParseGlobalFlags(c).Wide)); err != nil {
		return err
	}

	if rep.Mismatches > 0 && c.Bool("fail-on-mismatch") {
		return cli.Exit(fmt.Sprintf("%d step(s) did not match their expectation", rep.Mismatches), 1)
	}
	return nil
}

func simulationTables(sim simulation, wide bool) output.Sections {
	var sections output.Sections

	if steps, ok := output.Tabulate(sim.Steps, wide); ok && len(sim.Steps) > 0 {
		steps.Title = "steps"
		sections = append(sections, steps)
	}
	if subs, ok := output.Tabulate(sim.Subsystems, wide); ok {
		subs.Title = "subsystems"
		sections = append(sections, subs)
	}
	if len(sim.Metrics) > 0 {
		m, _ := output.Tabulate(sim.Metrics, wide)
		m.Title = "metrics"
		sections = append(sections, m)
	}

	summary := output.NewTable("SCENARIO", "STEPS", "MISMATCHES")
	summary.AddRow(sim.Name, strconv.Itoa(len(sim.Steps)), strconv.Itoa(sim.Mismatches))
	return append(sections, summary)
}

// gather flattens counters and gauges into samples. Histograms report
// their observation count.
func gather(g prometheus.Gatherer) ([]metricSample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var out []metricSample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}

			s := metricSample{Name: mf.GetName(), Labels: strings.Join(pairs, ",")}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				s.Value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				s.Name += "_count"
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}
