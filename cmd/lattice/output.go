package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/samcharles93/lattice/internal/api"
	"github.com/samcharles93/lattice/internal/inference"
)

// printer writes command results either as aligned text or as JSON lines.
type printer struct {
	w    io.Writer
	enc  *json.Encoder
	info inference.ModelInfo
}

func newPrinter(w io.Writer, info inference.ModelInfo, asJSON bool) *printer {
	p := &printer{w: w, info: info}
	if asJSON {
		p.enc = json.NewEncoder(w)
	}
	return p
}

type classifyRecord struct {
	Index                  int            `json:"index"`
	Model                  string         `json:"model"`
	Class                  int            `json:"class"`
	Label                  string         `json:"label"`
	Rejected               bool           `json:"rejected"`
	Probabilities          []float64      `json:"probabilities"`
	Rejection              float64        `json:"rejection,omitempty"`
	LogLikelihoods         []api.LogValue `json:"log_likelihoods"`
	ThresholdLogLikelihood *api.LogValue  `json:"threshold_log_likelihood,omitempty"`
	Path                   []int          `json:"path,omitempty"`
}

type classEvaluationRecord struct {
	Class         int          `json:"class"`
	Label         string       `json:"label"`
	LogLikelihood api.LogValue `json:"log_likelihood"`
	Path          []int        `json:"path,omitempty"`
	PathLogScore  api.LogValue `json:"path_log_score"`
	Forward       [][]float64  `json:"forward,omitempty"`
	Backward      [][]float64  `json:"backward,omitempty"`
	Scaling       []float64    `json:"scaling,omitempty"`
	Posteriors    [][]float64  `json:"posteriors,omitempty"`
}

type evaluateRecord struct {
	Index   int                     `json:"index"`
	Model   string                  `json:"model"`
	Classes []classEvaluationRecord `json:"classes"`
}

func logValues(xs []float64) []api.LogValue {
	out := make([]api.LogValue, len(xs))
	for i, x := range xs {
		out[i] = api.LogValue(x)
	}
	return out
}

func (p *printer) classification(index int, res *inference.Result) error {
	if p.enc != nil {
		rec := classifyRecord{
			Index:          index,
			Model:          p.info.ID,
			Class:          res.Class,
			Label:          res.Label,
			Rejected:       res.Rejected,
			Probabilities:  res.Probabilities,
			Rejection:      res.Rejection,
			LogLikelihoods: logValues(res.LogLikelihoods),
			Path:           res.Path,
		}
		if res.HasThreshold {
			v := api.LogValue(res.ThresholdLogLikelihood)
			rec.ThresholdLogLikelihood = &v
		}
		return p.enc.Encode(rec)
	}

	head := fmt.Sprintf("[%d] %s", index, res.Label)
	if !res.Rejected {
		head += fmt.Sprintf("  p=%.4f", res.Probabilities[res.Class])
	}
	_, _ = fmt.Fprintln(p.w, head)
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for c, prob := range res.Probabilities {
		mark := " "
		if c == res.Class {
			mark = "*"
		}
		_, _ = fmt.Fprintf(tw, "  %s %s\tp=%.4f\tll=%s\n", mark, p.info.Label(c), prob, formatLog(res.LogLikelihoods[c]))
	}
	if res.HasThreshold {
		mark := " "
		if res.Rejected {
			mark = "*"
		}
		_, _ = fmt.Fprintf(tw, "  %s threshold\tp=%.4f\tll=%s\n", mark, res.Rejection, formatLog(res.ThresholdLogLikelihood))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.Path) > 0 {
		_, _ = fmt.Fprintf(p.w, "    path: %s\n", formatPath(res.Path))
	}
	return nil
}

func (p *printer) evaluation(index int, ev *inference.Evaluation) error {
	if p.enc != nil {
		rec := evaluateRecord{Index: index, Model: p.info.ID, Classes: make([]classEvaluationRecord, len(ev.Classes))}
		for i, ce := range ev.Classes {
			rec.Classes[i] = classEvaluationRecord{
				Class:         ce.Class,
				Label:         ce.Label,
				LogLikelihood: api.LogValue(ce.LogLikelihood),
				Path:          ce.Path,
				PathLogScore:  api.LogValue(ce.PathLogScore),
				Forward:       ce.Forward,
				Backward:      ce.Backward,
				Scaling:       ce.Scaling,
				Posteriors:    ce.Posteriors,
			}
		}
		return p.enc.Encode(rec)
	}

	_, _ = fmt.Fprintf(p.w, "[%d]\n", index)
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, ce := range ev.Classes {
		_, _ = fmt.Fprintf(tw, "  %s\tll=%s\tviterbi=%s\n", ce.Label, formatLog(ce.LogLikelihood), formatLog(ce.PathLogScore))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, ce := range ev.Classes {
		if ce.Forward != nil {
			writeTable(p.w, ce.Label+" forward (scaled)", "t", ce.Forward)
			writeTable(p.w, ce.Label+" backward (scaled)", "t", ce.Backward)
			_, _ = fmt.Fprintf(p.w, "  %s scaling: %s\n", ce.Label, formatRow(ce.Scaling))
		}
		if ce.Posteriors != nil {
			writeTable(p.w, ce.Label+" posteriors", "t", ce.Posteriors)
		}
	}
	return nil
}

func (p *printer) paths(index int, ev *inference.Evaluation) error {
	if p.enc != nil {
		rec := evaluateRecord{Index: index, Model: p.info.ID}
		for _, ce := range ev.Classes {
			rec.Classes = append(rec.Classes, classEvaluationRecord{
				Class:         ce.Class,
				Label:         ce.Label,
				LogLikelihood: api.LogValue(ce.LogLikelihood),
				Path:          ce.Path,
				PathLogScore:  api.LogValue(ce.PathLogScore),
			})
		}
		return p.enc.Encode(rec)
	}

	_, _ = fmt.Fprintf(p.w, "[%d]\n", index)
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, ce := range ev.Classes {
		path := formatPath(ce.Path)
		if len(ce.Path) == 0 {
			path = "(impossible)"
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", ce.Label, formatLog(ce.PathLogScore), path)
	}
	return tw.Flush()
}

// writeTable prints rows prefixed with index, e.g. "t=3" for time steps or
// "s=1" for states.
func writeTable(w io.Writer, title, index string, rows [][]float64) {
	_, _ = fmt.Fprintf(w, "  %s:\n", title)
	for i, row := range rows {
		_, _ = fmt.Fprintf(w, "    %s=%-4d %s\n", index, i, formatRow(row))
	}
}

func formatRow(row []float64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return strings.Join(parts, " ")
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, " ")
}

func formatLog(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
