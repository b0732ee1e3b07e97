package command

import (
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/loresync/internal/cli/output"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/server/httpserver/handler"
)

// StatusCommand reports server health and table sizes.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server health and coordinator statistics",
		Action: status,
	}
}

type statusView struct {
	Health handler.HealthResponse `json:"health"`
	Stats  service.Stats          `json:"stats"`
}

func status(c *cli.Context) error {
	var v statusView
	if err := fetch(c, "/healthz", &v.Health); err != nil {
		return err
	}
	if err := fetch(c, "/v1/stats", &v.Stats); err != nil {
		return err
	}

	health := output.NewTable("STATUS", "VERSION", "TIME")
	health.AddRow(v.Health.Status, v.Health.Version, v.Health.Time)

	ops := output.NewTable("STATUS", "COUNT")
	ops.Title = "operations"
	if t, ok := output.Tabulate(v.Stats.Operations, false); ok {
		ops.Rows = t.Rows
	}

	subs := output.NewTable("SUBSYSTEMS")
	subs.AddRow(strconv.Itoa(v.Stats.Subsystems))

	return render(c, v, output.Sections{health, subs, ops})
}

// SubsystemsCommand reads registered subsystems.
func SubsystemsCommand() *cli.Command {
	return &cli.Command{
		Name:    "subsystems",
		Aliases: []string{"sub"},
		Usage:   "Inspect registered subsystems",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List subsystems",
				Action: subsystemsList,
			},
			{
				Name:      "get",
				Usage:     "Show one subsystem and its current payload",
				ArgsUsage: "<id>",
				Action:    subsystemsGet,
			},
			{
				Name:      "validate",
				Usage:     "Check a subsystem's snapshot against its fingerprint and validator",
				ArgsUsage: "<id>",
				Action:    subsystemsValidate,
			},
		},
	}
}

func subsystemsList(c *cli.Context) error {
	var resp handler.ListSubsystemsResponse
	if err := fetch(c, "/v1/subsystems", &resp); err != nil {
		return err
	}
	return render(c, resp, resp.Items)
}

func subsystemsGet(c *cli.Context) error {
	id, err := requireArg(c, "subsystem id")
	if err != nil {
		return err
	}
	var resp handler.SubsystemResponse
	if err := fetch(c, "/v1/subsystems/"+url.PathEscape(id), &resp); err != nil {
		return err
	}
	return render(c, resp, nil)
}

func subsystemsValidate(c *cli.Context) error {
	id, err := requireArg(c, "subsystem id")
	if err != nil {
		return err
	}
	var resp handler.ValidateResponse
	if err := fetch(c, "/v1/subsystems/"+url.PathEscape(id)+"/validate", &resp); err != nil {
		return err
	}
	if err := render(c, resp, nil); err != nil {
		return err
	}
	if !resp.Valid {
		return cli.Exit("", 2)
	}
	return nil
}

// OperationsCommand reads propagation operations.
func OperationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "operations",
		Aliases: []string{"ops"},
		Usage:   "Inspect propagation operations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List operations, oldest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only operations started by this subsystem",
					},
				},
				Action: operationsList,
			},
			{
				Name:      "get",
				Usage:     "Show one operation",
				ArgsUsage: "<operation-id>",
				Action:    operationsGet,
			},
		},
	}
}

func operationsList(c *cli.Context) error {
	var resp handler.ListOperationsResponse
	q := url.Values{"source": {c.String("source")}}
	if err := fetchQuery(c, "/v1/operations", q, &resp); err != nil {
		return err
	}
	return render(c, resp, resp.Items)
}

func operationsGet(c *cli.Context) error {
	id, err := requireArg(c, "operation id")
	if err != nil {
		return err
	}
	var resp handler.OperationResponse
	if err := fetch(c, "/v1/operations/"+url.PathEscape(id), &resp); err != nil {
		return err
	}
	return render(c, resp, nil)
}

func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one "+what, 1)
	}
	return c.Args().First(), nil
}
