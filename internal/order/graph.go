package order

import "fmt"

// Votes is the edge-vote matrix: Votes[i][j] counts the proposals that
// place command i strictly before command j.
type Votes [][]int

// EdgeVotes counts, for every pair of positions in every proposal, one vote
// for the earlier command preceding the later one.
// It panics if a proposal names a command outside [0, cmdCount).
func EdgeVotes(proposals [][]int, cmdCount int) Votes {
	votes := make(Votes, cmdCount)
	for i := range votes {
		votes[i] = make([]int, cmdCount)
	}

	for _, seq := range proposals {
		for _, c := range seq {
			if c < 0 || c >= cmdCount {
				panic(fmt.Sprintf("command index %d out of range [0, %d)", c, cmdCount))
			}
		}

		for a := 0; a < len(seq); a++ {
			for b := a + 1; b < len(seq); b++ {
				votes[seq[a]][seq[b]]++
			}
		}
	}

	return votes
}

// Graph is the trusted precedence relation over commands.
type Graph struct {
	n   int
	adj [][]bool
}

// Edges draws i→j when i before j has at least threshold votes and beats
// j before i, the lower index winning a tie. The relation is antisymmetric.
func Edges(votes Votes, threshold int) *Graph {
	n := len(votes)
	g := &Graph{n: n, adj: make([][]bool, n)}

	for i := 0; i < n; i++ {
		g.adj[i] = make([]bool, n)

		for j := 0; j < n; j++ {
			fwd, rev := votes[i][j], votes[j][i]
			if fwd >= threshold && (fwd > rev || (fwd == rev && i < j)) {
				g.adj[i][j] = true
			}
		}
	}

	return g
}

// Len returns the number of commands.
func (g *Graph) Len() int {
	return g.n
}

// HasEdge reports whether i must precede j.
func (g *Graph) HasEdge(i, j int) bool {
	return g.adj[i][j]
}

// Linearize places, at each step, the unplaced command with the fewest
// unplaced predecessors, lowest index first on ties. On an acyclic graph
// that minimum is zero, so every edge is respected; on a cycle the
// least-constrained command goes first and the walk still terminates.
func Linearize(g *Graph) []int {
	indeg := make([]int, g.n)
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			if g.adj[i][j] {
				indeg[j]++
			}
		}
	}

	placed := make([]bool, g.n)
	out := make([]int, 0, g.n)

	for len(out) < g.n {
		next := -1
		for c := 0; c < g.n; c++ {
			if placed[c] {
				continue
			}
			if next < 0 || indeg[c] < indeg[next] {
				next = c
			}
		}

		placed[next] = true
		out = append(out, next)

		for j := 0; j < g.n; j++ {
			if g.adj[next][j] && !placed[j] {
				indeg[j]--
			}
		}
	}

	return out
}
