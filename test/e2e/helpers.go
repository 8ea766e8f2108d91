//go:build e2e

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const ontology = `
nodes:
  - iri: http://x/anatomy
  - iri: http://x/organ
  - iri: http://x/heart
  - iri: http://x/old_heart
    labels: [Deprecated]
  - iri: http://x/valve
edges:
  - {from: http://x/organ, to: http://x/anatomy}
  - {from: http://x/heart, to: http://x/organ}
  - {from: http://x/valve, to: http://x/old_heart}
  - {from: http://x/old_heart, to: http://x/heart}
`

// writeOntology stores the shared fixture graph and returns its path.
func writeOntology(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	if err := os.WriteFile(path, []byte(ontology), 0600); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	return path
}

// scigraph runs the built binary with a scrubbed environment: no user
// config file and no stray SCIGRAPH_ overrides.
func scigraph(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binPath, args...)

	var clean []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "SCIGRAPH_") || strings.HasPrefix(e, "HOME=") {
			continue
		}
		clean = append(clean, e)
	}
	clean = append(clean, "HOME="+t.TempDir(), "SCIGRAPH_TELEMETRY_DISABLED=true", "SCIGRAPH_LOG_LEVEL=error")
	cmd.Env = append(clean, env...)

	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}
