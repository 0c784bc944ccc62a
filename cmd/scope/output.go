package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/codescope/internal/coordinator"
	"github.com/alfredjeanlab/codescope/internal/gate"
	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/normalize"
	"github.com/alfredjeanlab/codescope/internal/session"
	"github.com/alfredjeanlab/codescope/internal/ui"
)

// resultDoc is the JSON and YAML shape of a view result.
type resultDoc struct {
	ProjectID string           `json:"project_id" yaml:"project_id"`
	View      model.View       `json:"view" yaml:"view"`
	Kind      model.ResultKind `json:"kind" yaml:"kind"`
	NoMatches bool             `json:"no_matches" yaml:"no_matches"`
	Result    normalize.Result `json:"result" yaml:"result"`
}

// statusDoc is the JSON and YAML shape of a session status.
type statusDoc struct {
	ProjectID string              `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Status    model.ProjectStatus `json:"status" yaml:"status"`
	Message   string              `json:"message,omitempty" yaml:"message,omitempty"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
	Views     []model.View        `json:"views" yaml:"views"`
}

func newStatusDoc(snap session.Snapshot) statusDoc {
	return statusDoc{
		ProjectID: snap.ProjectID,
		Status:    snap.Status,
		Message:   snap.Message,
		Error:     snap.LastError,
		Views:     gate.ReachableViews(snap.Status),
	}
}

func printDoc(w io.Writer, v any) error {
	switch format() {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

func printStatus(w io.Writer, snap session.Snapshot) error {
	doc := newStatusDoc(snap)
	if format() != "table" {
		return printDoc(w, doc)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if doc.ProjectID != "" {
		fmt.Fprintf(tw, "project:\t%s\n", ui.RenderAccent(doc.ProjectID))
	}
	fmt.Fprintf(tw, "status:\t%s\n", ui.RenderStatus(doc.Status))
	if doc.Message != "" {
		fmt.Fprintf(tw, "message:\t%s\n", doc.Message)
	}
	if doc.Error != "" {
		fmt.Fprintf(tw, "error:\t%s\n", doc.Error)
	}
	fmt.Fprintf(tw, "views:\t%s\n", joinViews(doc.Views))
	return tw.Flush()
}

func joinViews(views []model.View) string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// printOutcome renders a view result. A superseded (nil) outcome prints
// nothing.
func printOutcome(w io.Writer, out *coordinator.Outcome) error {
	if out == nil {
		return nil
	}
	if format() != "table" {
		return printDoc(w, resultDoc{
			ProjectID: out.ProjectID,
			View:      out.View,
			Kind:      out.Kind,
			NoMatches: out.NoMatches,
			Result:    out.Result,
		})
	}
	if out.NoMatches {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}

	switch r := out.Result.(type) {
	case normalize.SearchResult:
		return printSearchTable(w, r)
	case normalize.CallGraphResult:
		return printCallGraphTable(w, r)
	case normalize.DataFlowResult:
		return printDataFlowTable(w, r)
	case normalize.SimilarityResult:
		return printSimilarityTable(w, r)
	case normalize.ConceptResult:
		return printConceptTable(w, r)
	case normalize.QualityResult:
		return printQualityTable(w, r)
	default:
		return fmt.Errorf("cannot render %s result", out.Kind)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func printSearchTable(w io.Writer, r normalize.SearchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPATH\tSCORE")
	for _, h := range r.Hits {
		score := ""
		if h.Score != 0 {
			score = fmt.Sprintf("%.2f", h.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", truncate(h.Name, 50), h.Type, h.Path, score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d results\n", len(r.Hits))
	return err
}

func printCallGraphTable(w io.Writer, r normalize.CallGraphResult) error {
	for _, m := range r.Methods {
		if _, err := fmt.Fprintln(w, m); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d methods\n", len(r.Methods))
	return err
}

func printDataFlowTable(w io.Writer, r normalize.DataFlowResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "method:\t%s\n", ui.RenderAccent(r.Flow.MethodID))
	printNamedTypes(tw, "inputs", r.Flow.Inputs)
	printNamedTypes(tw, "outputs", r.Flow.Outputs)
	if len(r.Flow.Connections) > 0 {
		fmt.Fprintln(tw, "connections:")
		for _, c := range r.Flow.Connections {
			fmt.Fprintf(tw, "  %s\n", c)
		}
	}
	return tw.Flush()
}

func printNamedTypes(w io.Writer, label string, types []model.NamedType) {
	if len(types) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, t := range types {
		fmt.Fprintf(w, "  %s\t%s\n", t.Name, ui.RenderMuted(t.Type))
	}
}

func printSimilarityTable(w io.Writer, r normalize.SimilarityResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tSIMILARITY")
	for _, p := range r.Pairs {
		fmt.Fprintf(tw, "%s\t%d%%\n", p.Counterpart(r.Anchor), p.Percent())
	}
	return tw.Flush()
}

func printConceptTable(w io.Writer, r normalize.ConceptResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tCONCEPT\tSOURCE")
	for _, m := range r.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.EntityID, m.Concept, m.Source)
	}
	return tw.Flush()
}

func printQualityTable(w io.Writer, r normalize.QualityResult) error {
	if r.Clean() {
		fmt.Fprintln(w, "no issues found")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tTYPE\tENTITY\tMESSAGE")
		for _, is := range r.Issues {
			typ := string(is.Type)
			if is.RawType != "" {
				typ = is.RawType
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ui.RenderSeverity(is.Severity), typ, is.EntityID, truncate(is.Message, 60))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "score: %d (%s)  errors: %d  warnings: %d  infos: %d\n",
		r.Score.Value, ui.RenderGrade(r.Score.Grade), r.Counts.Errors, r.Counts.Warnings, r.Counts.Infos)
	return err
}
