//go:build ignore

// This program generates the 18-frame atlas descriptor used by unit tests.
// Run with: go run generate_atlas.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type sprite struct {
	Filename string `json:"filename"`
	Region   rect   `json:"region"`
	Margin   rect   `json:"margin"`
}

func main() {
	// 18 frames of 286x602 packed into a 6x3 grid
	sprites := make([]sprite, 0, 18)
	for i := 0; i < 18; i++ {
		sprites = append(sprites, sprite{
			Filename: fmt.Sprintf("shrimpy-%02d.png", i),
			Region:   rect{X: (i % 6) * 286, Y: (i / 6) * 602, W: 286, H: 602},
			Margin:   rect{X: 0, Y: 0, W: 0, H: 0},
		})
	}

	doc := map[string]any{
		"textures": []any{
			map[string]any{
				"image":   "shrimpy.png",
				"sprites": sprites,
			},
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile("shrimpy.json", data, 0644); err != nil {
		panic(err)
	}
}
