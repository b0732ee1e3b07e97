package command

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/loresync/internal/cli/connection"
	"github.com/yndnr/loresync/internal/cli/output"
	"github.com/yndnr/loresync/internal/infra/buildinfo"
)

// DefaultServer is the address of a locally started loresync-server.
const DefaultServer = "127.0.0.1:5180"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "loresync-cli",
		Usage:                "Simulate and inspect loresync state propagation",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			SimulateCommand(),
			StatusCommand(),
			SubsystemsCommand(),
			OperationsCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "loresync-server address",
			EnvVars: []string{"LORESYNC_SERVER"},
			Value:   DefaultServer,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{"LORESYNC_OUTPUT"},
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags are the flags shared by every command.
type GlobalFlags struct {
	Server  string
	Timeout time.Duration
	Output  output.Format
	Wide    bool
}

// ParseGlobalFlags extracts global flags from c.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Server:  c.String("server"),
		Timeout: c.Duration("timeout"),
		Output:  format,
		Wide:    c.Bool("wide"),
	}
}

// newClient builds a client for the --server address.
func newClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.Server, connection.WithTimeout(flags.Timeout))
}

// fetch GETs path from the server into out.
func fetch(c *cli.Context, path string, out any) error {
	return fetchQuery(c, path, nil, out)
}

func fetchQuery(c *cli.Context, path string, query url.Values, out any) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	client := newClient(c)
	if err := client.Get(ctx, path, query, out); err != nil {
		return fmt.Errorf("%s: %w", client.BaseURL(), err)
	}
	return nil
}

// render writes data in the selected format. table, when non-nil,
// replaces data in table mode.
func render(c *cli.Context, data any, table any) error {
	flags := ParseGlobalFlags(c)
	if flags.Output == output.FormatTable && table != nil {
		data = table
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}
