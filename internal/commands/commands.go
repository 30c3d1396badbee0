package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"userapi/internal/orm"
)

var (
	ErrBadAssignment = errors.New("assignment must look like key=value")
	ErrBadOutput     = errors.New("output must be json or yaml")
	ErrIDArgument    = errors.New("exactly one user id argument is required")
)

// Version is reported by --version.
var Version = "dev"

var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   "json",
		Usage:   "Output format: json or yaml",
		EnvVars: []string{"USERCTL_OUTPUT"},
	},
}

func setFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "set",
		Aliases: []string{"s"},
		Usage:   "Field assignment key=value (repeatable)",
	}
}

// NewApp builds the userctl CLI. Every command opens its Env through open and closes it when done.
func NewApp(open Opener) *cli.App {
	run := func(action func(c *cli.Context, env *Env) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			env, err := open(c.Context)
			if err != nil {
				return err
			}
			defer env.Close()
			return action(c, env)
		}
	}

	return &cli.App{
		Name:    "userctl",
		Usage:   "Manage user records in the configured store",
		Version: Version,
		Flags:   Flags,
		Before: func(c *cli.Context) error {
			switch c.String("output") {
			case "json", "yaml":
				return nil
			}
			return ErrBadOutput
		},
		Commands: []*cli.Command{
			{
				Name:     "list",
				Category: "users",
				Aliases:  []string{"ls"},
				Usage:    "List every user",
				Action: run(func(c *cli.Context, env *Env) error {
					res, err := env.Users.List(c.Context)
					if err != nil {
						return err
					}
					return render(c, res)
				}),
			},
			{
				Name:      "get",
				Category:  "users",
				Usage:     "Show one user",
				ArgsUsage: "<id>",
				Action: run(func(c *cli.Context, env *Env) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					u, err := env.Users.Get(c.Context, id)
					if err != nil {
						return err
					}
					return render(c, u)
				}),
			},
			{
				Name:     "create",
				Category: "users",
				Usage:    "Create a user, e.g. --set name=Alice --set email=a@example.com --set password=...",
				Flags:    []cli.Flag{setFlag()},
				Action: run(func(c *cli.Context, env *Env) error {
					data, err := parseAssignments(c.StringSlice("set"))
					if err != nil {
						return err
					}
					u, err := env.Users.Create(c.Context, data)
					if err != nil {
						return err
					}
					return render(c, u)
				}),
			},
			{
				Name:      "update",
				Category:  "users",
				Usage:     "Change fields of a user",
				ArgsUsage: "[--set key=value...] <id>",
				Flags:     []cli.Flag{setFlag()},
				Action: run(func(c *cli.Context, env *Env) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					data, err := parseAssignments(c.StringSlice("set"))
					if err != nil {
						return err
					}
					u, err := env.Users.Update(c.Context, id, data)
					if err != nil {
						return err
					}
					return render(c, u)
				}),
			},
			{
				Name:      "delete",
				Category:  "users",
				Aliases:   []string{"rm"},
				Usage:     "Delete a user",
				ArgsUsage: "<id>",
				Action: run(func(c *cli.Context, env *Env) error {
					id, err := idArg(c)
					if err != nil {
						return err
					}
					if err := env.Users.Delete(c.Context, id); err != nil {
						return err
					}
					return render(c, map[string]string{"deleted": id})
				}),
			},
			{
				Name:     "migrate",
				Category: "store",
				Usage:    "Create the users table on SQL stores",
				Action: run(func(c *cli.Context, env *Env) error {
					return env.Backend.Migrate(c.Context, env.Log)
				}),
			},
		},
	}
}

func idArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", ErrIDArgument
	}
	return c.Args().First(), nil
}

// parseAssignments turns key=value pairs into fields. Values stay strings.
func parseAssignments(pairs []string) (orm.Fields, error) {
	data := orm.Fields{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadAssignment, p)
		}
		data[k] = v
	}
	return data, nil
}

func render(c *cli.Context, v any) error {
	return encode(c.App.Writer, c.String("output"), v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return ErrBadOutput
}
