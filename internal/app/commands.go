package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "fixtures/internal/mcp"
	"fixtures/internal/query"
	"fixtures/internal/source"
)

// Version is reported by the MCP server.
var Version = "dev"

// errValidationFailed makes the process exit non-zero after the report
// has been printed.
var errValidationFailed = errors.New("validation failed")

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New()
	err := NewRootCommand(a).ExecuteContext(ctx)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if serr := a.Shutdown(shutdownCtx); serr != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", serr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "fixtures",
		Short:         "Load, query, validate and generate test fixture data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Startup(cmd.Context())
		},
	}
	root.AddCommand(
		newServeCommand(a),
		newQueryCommand(a),
		newValidateCommand(a),
		newGenerateCommand(a),
		newSnapshotCommand(a),
	)
	return root
}

// ── Shared flags ───────────────────────────────────────────

type sourceFlags struct {
	format      string
	environment string
	selector    string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "source format: json, csv, yaml, generated (default: from file extension)")
	cmd.Flags().StringVarP(&f.environment, "env", "e", "", "logical environment of the data")
	cmd.Flags().StringVar(&f.selector, "selector", "", "JSONPath selecting the record array, e.g. $.data.users[*]")
}

func (f *sourceFlags) descriptor(path string) (source.Descriptor, error) {
	name := f.format
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(strings.SplitN(path, "?", 2)[0]), ".")
		if name == "" {
			return source.Descriptor{}, fmt.Errorf("cannot tell the format of %q; pass --format", path)
		}
	}
	format, err := source.ParseFormat(name)
	if err != nil {
		return source.Descriptor{}, err
	}
	return source.Descriptor{
		Path:        path,
		Format:      format,
		Environment: f.environment,
		Selector:    f.selector,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── serve ──────────────────────────────────────────────────

func newServeCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fixture tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcpserver.New(a.provider, Version)
			a.provider.SetEmitter(srv)
			return srv.ServeStdio(cmd.Context())
		},
	}
}

// ── query ──────────────────────────────────────────────────

func newQueryCommand(a *App) *cobra.Command {
	var (
		src       sourceFlags
		specJSON  string
		whereJSON string
		fields    []string
		orderBy   string
		skip      int
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "query <path>",
		Short: "Load a source and print the records matching a query",
		Example: `  fixtures query users.json --where '{"active": true, "age": {"$gte": 18}}' --order-by age:desc --limit 5
  fixtures query users.csv --select id,email
  fixtures query api.json --selector '$.data.users[*]' --query '{"where": {"role": "admin"}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.descriptor(args[0])
			if err != nil {
				return err
			}

			spec := query.New()
			if specJSON != "" {
				if spec, err = query.ParseSpec([]byte(specJSON)); err != nil {
					return err
				}
			}
			if whereJSON != "" {
				where, err := query.ParseSpec([]byte(`{"where":` + whereJSON + `}`))
				if err != nil {
					return err
				}
				spec = spec.And(where.Where...)
			}
			if len(fields) > 0 {
				spec = spec.Project(fields...)
			}
			if orderBy != "" {
				orders, err := query.ParseOrderBy(orderBy)
				if err != nil {
					return err
				}
				spec.OrderBy = append(spec.OrderBy, orders...)
			}
			if cmd.Flags().Changed("skip") {
				spec = spec.Offset(skip)
			}
			if cmd.Flags().Changed("limit") {
				spec = spec.Take(limit)
			}

			c, err := a.provider.QuerySource(cmd.Context(), d, spec)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&specJSON, "query", "q", "", "full query as JSON: {where, select, orderBy, skip, limit}")
	cmd.Flags().StringVarP(&whereJSON, "where", "w", "", "where clause as a JSON object")
	cmd.Flags().StringSliceVar(&fields, "select", nil, "fields to keep, in order")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "sort keys, e.g. age:desc,name")
	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to return (0: no limit)")
	return cmd
}

// ── validate ───────────────────────────────────────────────

type validationReport struct {
	Source  string      `json:"source"`
	Rule    string      `json:"rule"`
	Count   int         `json:"count"`
	Invalid int         `json:"invalid"`
	Results []recordRes `json:"results"`
}

type recordRes struct {
	Index    int      `json:"index"`
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newValidateCommand(a *App) *cobra.Command {
	var (
		src  sourceFlags
		rule string
	)
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate every record of a source against a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.descriptor(args[0])
			if err != nil {
				return err
			}
			c, results, err := a.provider.LoadValidated(cmd.Context(), d, rule)
			if err != nil {
				return err
			}

			report := validationReport{Source: d.String(), Rule: rule, Count: len(c)}
			for i, r := range results {
				if !r.IsValid {
					report.Invalid++
				}
				report.Results = append(report.Results, recordRes{
					Index: i, IsValid: r.IsValid, Errors: r.Errors, Warnings: r.Warnings,
				})
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Invalid > 0 {
				return fmt.Errorf("%w: %d of %d records", errValidationFailed, report.Invalid, report.Count)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&rule, "rule", "r", "", "validation rule name")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}

// ── generate ───────────────────────────────────────────────

func newGenerateCommand(a *App) *cobra.Command {
	var (
		count int
		seed  int64
		rule  string
	)
	cmd := &cobra.Command{
		Use:       "generate <scenario>",
		Short:     "Generate synthetic records for a scenario",
		Example:   "  fixtures generate payment --count 5 --seed 42 --rule payment",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"login", "registration", "payment", "user"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var seedPtr *int64
			if cmd.Flags().Changed("seed") {
				seedPtr = &seed
			}
			g, err := a.provider.GenerateData(args[0], count, seedPtr, rule)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), g); err != nil {
				return err
			}
			if !g.Valid() {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", source.DefaultGeneratedCount, "number of records")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for reproducible output (default: random)")
	cmd.Flags().StringVarP(&rule, "rule", "r", "", "validate each record against this rule")
	return cmd
}

// ── snapshot ───────────────────────────────────────────────

func newSnapshotCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored result snapshots (readable as results://<name>)",
	}

	var src sourceFlags
	save := &cobra.Command{
		Use:   "save <name> <path>",
		Short: "Load a source and store it under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.descriptor(args[1])
			if err != nil {
				return err
			}
			info, err := a.provider.Snapshot(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	src.register(save)

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := a.provider.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), infos)
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "deleted snapshot %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(save, list, del)
	return cmd
}
