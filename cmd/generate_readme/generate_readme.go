package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	_ "github.com/keshon/ckpt/internal/command/describe"
	_ "github.com/keshon/ckpt/internal/command/init"
	_ "github.com/keshon/ckpt/internal/command/log"
	_ "github.com/keshon/ckpt/internal/command/revert"
	_ "github.com/keshon/ckpt/internal/command/show"
	_ "github.com/keshon/ckpt/internal/command/snap"
	_ "github.com/keshon/ckpt/internal/command/status"
	_ "github.com/keshon/ckpt/internal/command/verify"
)

const sectionTemplate = `{{range .}}### {{.Name}}
{{.Brief}}{{if .Aliases}} (aliases: {{join .Aliases ", "}}){{end}}

` + "```" + `
ckpt {{.Usage}}

{{.Help}}
` + "```" + `

{{end}}`

type section struct {
	Name, Brief, Usage, Help string
	Aliases                  []string
}

func main() {
	cmd := &cli.Command{
		Name:  "generate_readme",
		Usage: "render README.md command sections from the command registry",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "template", Value: "README.md.tmpl", Usage: "README template"},
			&cli.StringFlag{Name: "out", Value: "README.md", Usage: "output file"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			if err := run(c.String("template"), c.String("out")); err != nil {
				return err
			}
			fmt.Printf("%s generated from %s\n", c.String("out"), c.String("template"))
			return nil
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "generate_readme: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string) error {
	tplBytes, err := os.ReadFile(in)
	if err != nil {
		return goerr.Wrap(err, "failed to read template", goerr.V("path", in))
	}
	tpl, err := template.New("readme").Parse(string(tplBytes))
	if err != nil {
		return goerr.Wrap(err, "failed to parse template", goerr.V("path", in))
	}

	sections, err := renderSections(command.AllCommands())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]string{"CommandSections": sections}); err != nil {
		return goerr.Wrap(err, "failed to render template")
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write readme", goerr.V("path", out))
	}
	return nil
}

func renderSections(cmds []command.Command) (string, error) {
	tpl := template.Must(template.New("sections").Funcs(template.FuncMap{"join": strings.Join}).Parse(sectionTemplate))

	list := make([]section, 0, len(cmds))
	for _, c := range cmds {
		list = append(list, section{Name: c.Name(), Brief: c.Brief(), Usage: c.Usage(), Help: c.Help(), Aliases: c.Aliases()})
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, list); err != nil {
		return "", goerr.Wrap(err, "failed to render command sections")
	}
	return buf.String(), nil
}
