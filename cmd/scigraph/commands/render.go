package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/SciGraph/SciGraph-sub002/pkg/engine"
	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/reachability"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

func renderStatus(w io.Writer, meta storage.Metadata) {
	if !meta.Exists {
		fmt.Fprintln(w, "Index:    absent")
		return
	}
	fmt.Fprintln(w, "Index:    present")
	fmt.Fprintf(w, "Built:    %s\n", meta.BuiltAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Hubs:     %d\n", meta.Hubs)
	fmt.Fprintf(w, "Records:  %d\n", meta.Records)
	fmt.Fprintf(w, "Entries:  %d\n", meta.Entries)
	fmt.Fprintf(w, "Batch:    %d\n", meta.BatchSize)
	fmt.Fprintf(w, "Workers:  %d\n", meta.Workers)
	for _, x := range meta.Exclusions {
		fmt.Fprintf(w, "Exclude:  %s: %s\n", x.ID, x.Condition)
	}
}

func iri(g *graph.Graph, id graph.NodeID) string {
	if n := g.GetNodeByID(id); n != nil {
		return n.IRI
	}
	return fmt.Sprintf("#%d", id)
}

func renderPairs(w io.Writer, g *graph.Graph, pairs []reachability.Pair) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No connected pairs")
		return
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s -> %s\n", iri(g, p.Src), iri(g, p.Dst))
	}
	fmt.Fprintf(w, "%d connected pairs\n", len(pairs))
}

func renderVerify(w io.Writer, g *graph.Graph, r engine.VerifyReport) {
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "MISMATCH %s -> %s index=%t traversal=%t\n", iri(g, m.Src), iri(g, m.Dst), m.Index, m.Traverse)
	}
	fmt.Fprintf(w, "Checked %d pairs from %d sources, %d mismatches\n", r.Checked, r.Sources, len(r.Mismatches))
}

func renderGraphStats(w io.Writer, st GraphStats) {
	fmt.Fprintf(w, "Nodes:       %d\n", st.Nodes)
	fmt.Fprintf(w, "Edges:       %d\n", st.Edges)
	fmt.Fprintf(w, "Excluded:    %d\n", st.Excluded)
	fmt.Fprintf(w, "Components:  %d (largest %d)\n", st.Components, st.LargestComponent)
	if st.MaxDegreeIRI != "" {
		fmt.Fprintf(w, "Max degree:  %d (%s)\n", st.MaxDegree, st.MaxDegreeIRI)
	}
}
