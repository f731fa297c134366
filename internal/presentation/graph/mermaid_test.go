package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/blocks/casting"
	physicsblocks "github.com/aretw0/lattice/pkg/blocks/physics"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/stretchr/testify/require"
)

func physicsChain(t *testing.T) []block.Block {
	t.Helper()
	impulse := physicsblocks.NewImpulse()
	require.NoError(t, block.SetParamByName(impulse, "RigidBody", value.ContextVar(physics.RigidBodyVariable)))
	return []block.Block{physicsblocks.NewSimulation(), physicsblocks.NewRigidBody(), impulse}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		blocks   []block.Block
		overlay  *graph.Overlay
		contains []string
	}{
		{
			name:   "Shapes",
			blocks: physicsChain(t),
			contains: []string{
				`b0_Physics_Simulation[["Physics.Simulation"]]`,
				`b1_Physics_RigidBody[["Physics.RigidBody"]]`,
				`b2_Physics_Impulse[/"Physics.Impulse"/]`,
			},
		},
		{
			name:   "Value Flow",
			blocks: []block.Block{casting.NewHexToBytes(), casting.NewBase58Encode()},
			contains: []string{
				`b0_HexToBytes -- "bytes" --> b1_Base58_Encode`,
			},
		},
		{
			name:   "Variable Edges",
			blocks: physicsChain(t),
			contains: []string{
				`b0_Physics_Simulation -. "Physics.Simulation" .-> b1_Physics_RigidBody`,
				`b0_Physics_Simulation -. "Physics.Simulation" .-> b2_Physics_Impulse`,
				`b1_Physics_RigidBody -. "Physics.RigidBody" .-> b2_Physics_Impulse`,
			},
		},
		{
			name:    "Overlay",
			blocks:  physicsChain(t),
			overlay: &graph.Overlay{Broken: []int{2, 2, 7}, Current: 0},
			contains: []string{
				"class b2_Physics_Impulse broken;",
				"class b0_Physics_Simulation current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.blocks, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaid_OverlayDeduplicates(t *testing.T) {
	got := graph.GenerateMermaid(physicsChain(t), &graph.Overlay{Broken: []int{1, 1}, Current: -1})
	require.Equal(t, 1, strings.Count(got, "class b1_Physics_RigidBody broken;"))
	require.NotContains(t, got, " current;")
}
