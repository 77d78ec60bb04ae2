package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/example/relcheck/internal/api"
	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/types"
)

type runner struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	analyzer *api.Analyzer
}

func main() {
	r := &runner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := r.app().Run(os.Args); err != nil {
		r.printError(err)
		os.Exit(1)
	}
}

func (r *runner) app() *cli.App {
	app := cli.NewApp()
	app.Name = "relcheck"
	app.Usage = "type-check relational query scripts"
	app.Writer = r.stdout
	app.ErrWriter = r.stderr
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every checked statement to stderr",
		},
		cli.IntFlag{
			Name:   "cache-size",
			Value:  api.DefaultCacheSize,
			Usage:  "number of parsed scripts to keep",
			EnvVar: "RELCHECK_CACHE_SIZE",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
	app.Before = r.setup
	scriptFlag := cli.StringFlag{
		Name:  "q",
		Usage: "script text to check instead of FILE",
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:      "check",
			Usage:     "check a script and print the schema of its last statement",
			ArgsUsage: "[FILE]",
			Flags: []cli.Flag{
				scriptFlag,
				cli.BoolFlag{
					Name:  "json",
					Usage: "print the result as JSON",
				},
			},
			Action: r.checkCommand,
		},
		cli.Command{
			Name:      "tables",
			Usage:     "check a script and print every relation it defines",
			ArgsUsage: "[FILE]",
			Flags:     []cli.Flag{scriptFlag},
			Action:    r.tablesCommand,
		},
	}
	app.OnUsageError = func(c *cli.Context, err error, isSubcommand bool) error {
		cli.ShowAppHelp(c)
		return err
	}
	return app
}

func (r *runner) setup(c *cli.Context) error {
	if c.GlobalBool("no-color") {
		color.NoColor = true
	}
	logger := zap.NewNop()
	if c.GlobalBool("verbose") {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "create logger")
		}
		logger = dev
	}
	analyzer, err := api.New(api.Options{
		Logger:    logger,
		CacheSize: c.GlobalInt("cache-size"),
	})
	if err != nil {
		return err
	}
	r.analyzer = analyzer
	return nil
}

func (r *runner) checkCommand(c *cli.Context) error {
	res, err := r.run(c)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		data, err := api.MetadataJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.stdout, string(data))
		return nil
	}
	r.renderRelation(res.Relation.Name, res.Relation.Schema)
	return nil
}

func (r *runner) tablesCommand(c *cli.Context) error {
	res, err := r.run(c)
	if err != nil {
		return err
	}
	if len(res.Tables) == 0 {
		fmt.Fprintln(r.stdout, "No tables defined")
	} else {
		names := lo.Map(res.Tables, func(b catalog.Binding, _ int) string { return b.Name })
		fmt.Fprintf(r.stdout, "Defined: %s\n\n", strings.Join(names, ", "))
	}
	for _, b := range res.Tables {
		r.renderRelation(b.Name, b.Schema)
		fmt.Fprintln(r.stdout)
	}
	fmt.Fprint(r.stdout, "Result: ")
	r.renderRelation(res.Relation.Name, res.Relation.Schema)
	return nil
}

func (r *runner) run(c *cli.Context) (*api.Result, error) {
	src, err := r.readScript(c)
	if err != nil {
		return nil, err
	}
	return r.analyzer.Check(src)
}

// readScript prefers -q, then the FILE argument, then stdin.
func (r *runner) readScript(c *cli.Context) (string, error) {
	if q := c.String("q"); q != "" {
		if c.NArg() > 0 {
			return "", errors.New("-q and FILE are mutually exclusive")
		}
		return q, nil
	}
	var (
		data []byte
		err  error
	)
	switch path := c.Args().First(); path {
	case "", "-":
		data, err = io.ReadAll(r.stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, "read script")
	}
	return string(data), nil
}

func (r *runner) renderRelation(name string, schema types.Schema) {
	fmt.Fprintf(r.stdout, "%s (%d column(s))\n", color.CyanString(name), schema.Len())
	if schema.Len() == 0 {
		return
	}
	header := []string{"column", "type"}
	widths := []int{len(header[0]), len(header[1])}
	for _, f := range schema.Fields() {
		widths[0] = max(widths[0], len(f.Name))
		widths[1] = max(widths[1], len(f.Type.String()))
	}
	r.printRow(header, widths)
	r.printRow([]string{strings.Repeat("-", widths[0]), strings.Repeat("-", widths[1])}, widths)
	for _, f := range schema.Fields() {
		r.printRow([]string{f.Name, f.Type.String()}, widths)
	}
}

func (r *runner) printRow(values []string, widths []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprintf("%-*s", widths[i], v)
	}
	fmt.Fprintln(r.stdout, strings.TrimRight(strings.Join(cells, " | "), " "))
}

func (r *runner) printError(err error) {
	kind := types.Kind(err)
	if api.IsParseError(err) {
		kind = "parse"
	}
	fmt.Fprintf(r.stderr, "%s %v\n", color.RedString("error[%s]:", kind), err)
}
