// Command gen-chains writes the sample chain definitions used by the
// examples and the docs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/physics"
	"gopkg.in/yaml.v3"
)

var collection = map[string]any{"var": physics.RigidBodyVariable}

var samples = []chain.Definition{
	{
		Name: "impulse",
		Blocks: []chain.Step{
			{Block: "Physics.Simulation", Params: map[string]any{"Gravity": []float64{0, -9.81, 0}}},
			{Block: "Physics.RigidBody", Params: map[string]any{
				"Bodies": []any{
					map[string]any{"Mass": 1, "Position": []float64{0, 10, 0}},
					map[string]any{"Mass": 4, "Position": []float64{2, 10, 0}},
				},
			}},
			{Block: "Physics.Impulse", Params: map[string]any{"RigidBody": collection}},
			{Block: "Physics.Position", Params: map[string]any{"RigidBody": collection}},
		},
	},
	{
		Name: "digest",
		Blocks: []chain.Step{
			{Block: "Hash.Keccak-256"},
			{Block: "ToHex"},
		},
	},
	{
		Name: "remember",
		Blocks: []chain.Step{
			{Block: "Set", Params: map[string]any{"Name": "Greeting"}},
			{Block: "Hash.Sha2-256"},
			{Block: "Base58.Encode"},
		},
	},
	{
		Name: "recall",
		Blocks: []chain.Step{
			{Block: "Get", Params: map[string]any{"Name": "Greeting", "Default": "nobody"}},
		},
	},
}

func main() {
	targetDir := "examples/chains"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		fail(err)
	}
	fmt.Printf("Generating sample chains in: %s\n", targetDir)

	for _, def := range samples {
		data, err := yaml.Marshal(def)
		if err != nil {
			fail(err)
		}
		path := filepath.Join(targetDir, def.Name+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fail(err)
		}
		fmt.Println("-", path)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
