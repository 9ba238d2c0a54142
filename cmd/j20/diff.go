package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/j20-dev/j20/internal/errors"
	"github.com/j20-dev/j20/pkg/list"
	"github.com/j20-dev/j20/pkg/reactive"
	"github.com/j20-dev/j20/pkg/scheduler"
)

// diffCase is one old/new pair of key sequences.
type diffCase struct {
	Name string   `yaml:"name" json:"name,omitempty"`
	Old  []string `yaml:"old" json:"old"`
	New  []string `yaml:"new" json:"new"`
}

// diffFile is the YAML input of `j20 diff --file`. It holds either a single
// pair at the top level or a list of named cases.
type diffFile struct {
	Old   []string   `yaml:"old"`
	New   []string   `yaml:"new"`
	Cases []diffCase `yaml:"cases"`
}

type opView struct {
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	Index  int    `json:"index"`
	Before string `json:"before,omitempty"`
	AtEnd  bool   `json:"at_end,omitempty"`
}

type diffReport struct {
	diffCase
	Ops           []opView   `json:"ops"`
	Stats         list.Stats `json:"stats"`
	DuplicateKeys []string   `json:"duplicate_keys,omitempty"`
}

func diffCmd(g *globals) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "diff [OLD NEW]",
		Short: "Print the operations that reconcile two key sequences",
		Long: `Reconcile a keyed list rendered from OLD into NEW and print the
create, move and remove operations in the order they are applied.

Sequences are comma-separated keys. With --file, cases are read from
a YAML file instead:

  cases:
    - name: rotate
      old: [a, b, c]
      new: [c, a, b]

Examples:
  j20 diff a,b,c c,a,b
  j20 diff a,b,c,d,e a,c,x,b,e --json
  j20 diff --file cases.yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var cases []diffCase
			if file != "" {
				var err error
				if cases, err = readDiffFile(file); err != nil {
					return err
				}
			} else {
				cases = []diffCase{{Old: splitKeys(args[0]), New: splitKeys(args[1])}}
			}

			reports := make([]diffReport, 0, len(cases))
			for _, c := range cases {
				reports = append(reports, runDiff(g.cfg.RuntimeConfig(g.logger), c))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			printDiff(cmd.OutOrStdout(), reports)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read cases from a YAML file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON")

	return cmd
}

// splitKeys parses a comma-separated sequence. The empty string is the empty
// sequence.
func splitKeys(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	keys := strings.Split(s, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

func readDiffFile(path string) ([]diffCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeInputInvalid).Wrap(err)
	}
	return parseDiffFile(data)
}

func parseDiffFile(data []byte) ([]diffCase, error) {
	var f diffFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.CodeInputInvalid).
			WithDetail("cannot parse diff file: " + err.Error()).
			WithSuggestion("Expect top-level old/new lists or a cases list")
	}
	cases := f.Cases
	if f.Old != nil || f.New != nil {
		cases = append([]diffCase{{Old: f.Old, New: f.New}}, cases...)
	}
	if len(cases) == 0 {
		return nil, errors.New(errors.CodeInputInvalid).WithDetail("diff file has no cases")
	}
	return cases, nil
}

// runDiff renders c.Old into a fresh runtime, then reconciles it into c.New.
func runDiff(rc reactive.Config, c diffCase) diffReport {
	rc.Scheduler = scheduler.New(scheduler.Config{Logger: rc.Logger})
	rt := reactive.New(rc)

	r := list.Reconciler[string, struct{}]{
		Render: func(string, *reactive.Cell[int]) struct{} { return struct{}{} },
		Name:   c.Name,
	}
	initial := r.Reconcile(rt, nil, c.Old)
	res := r.Reconcile(rt, initial.Entries, c.New)

	report := diffReport{diffCase: c, Stats: res.Stats}
	for _, op := range res.Ops {
		v := opView{
			Kind:  strings.ToLower(op.Kind.String()),
			Key:   fmt.Sprint(op.Key),
			Index: op.Index,
			AtEnd: op.AtEnd,
		}
		if op.Kind != list.OpRemove && !op.AtEnd {
			v.Before = fmt.Sprint(op.Before)
		}
		report.Ops = append(report.Ops, v)
	}
	for _, k := range res.DuplicateKeys {
		report.DuplicateKeys = append(report.DuplicateKeys, fmt.Sprint(k))
	}
	return report
}

func printDiff(w io.Writer, reports []diffReport) {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.Name != "" {
			fmt.Fprintf(w, "%s:\n", r.Name)
		}
		fmt.Fprintf(w, "  [%s] -> [%s]\n", strings.Join(r.Old, ","), strings.Join(r.New, ","))
		if len(r.DuplicateKeys) > 0 {
			errors.Warn(w, "duplicate keys "+strings.Join(r.DuplicateKeys, ","))
		}
		if len(r.Ops) == 0 {
			fmt.Fprintln(w, "  (no changes)")
		}
		for _, op := range r.Ops {
			switch {
			case op.Kind == "remove":
				fmt.Fprintf(w, "  %-6s %s from %d\n", op.Kind, op.Key, op.Index)
			case op.AtEnd:
				fmt.Fprintf(w, "  %-6s %s at %d (end)\n", op.Kind, op.Key, op.Index)
			default:
				fmt.Fprintf(w, "  %-6s %s at %d before %s\n", op.Kind, op.Key, op.Index, op.Before)
			}
		}
		fmt.Fprintf(w, "  %s\n", r.Stats)
	}
}
