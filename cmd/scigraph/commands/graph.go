package commands

import (
	"github.com/spf13/cobra"

	"github.com/SciGraph/SciGraph-sub002/pkg/engine"
	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/storage"
)

// GraphStats summarizes the loaded graph as the index sees it.
type GraphStats struct {
	Nodes            int
	Edges            int
	Excluded         int
	Components       int
	LargestComponent int
	MaxDegree        int
	MaxDegreeIRI     string
}

func collectGraphStats(eng *engine.Engine) GraphStats {
	g := eng.Graph
	st := GraphStats{Edges: g.EdgeCount()}

	vis := eng.Visibility()
	roots, n := graph.Components(g)
	st.Components = n

	sizes := make(map[graph.NodeID]int, n)
	for _, id := range g.Nodes() {
		st.Nodes++
		if vis != nil && !vis(id) {
			st.Excluded++
		}
		root := roots[id]
		sizes[root]++
		if sizes[root] > st.LargestComponent {
			st.LargestComponent = sizes[root]
		}
		if d := g.Degree(id); d > st.MaxDegree {
			st.MaxDegree = d
			st.MaxDegreeIRI = g.GetNodeByID(id).IRI
		}
	}
	return st
}

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the configured graph",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print node, edge and component counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stats never touch the index, so skip opening the durable store.
			eng, err := a.open(cmd, engine.WithStore(storage.NewMemoryStore()))
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			renderGraphStats(cmd.OutOrStdout(), collectGraphStats(eng))
			return nil
		},
	})
	return cmd
}
