// Worldgen terrain preview tool - interactive visualization with sliders
// over worldgen.Params, rendering the actual floor GenerateFloor would
// carve rather than a standalone reimplementation of the noise field.
//
// Usage: go run ./cmd/worldgenpreview
package main

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/material"
	"github.com/pthm-cable/cellsim/worldgen"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewW     = 512
	previewH     = 256
	panelWidth   = windowWidth - previewW - 30
)

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Worldgen Terrain Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := worldgen.DefaultParams()
	seed := int64(12345)

	materials := material.NewTable([]material.Def{
		{Name: "Stone", Behavior: material.Static},
	})
	stone := material.ID(1)

	img := rl.GenImageColor(previewW, previewH, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	needsRegen := true
	var grid *cellgrid.Grid
	pixels := make([]color.RGBA, previewW*previewH)

	for !rl.WindowShouldClose() {
		if needsRegen {
			grid = cellgrid.New(previewW, previewH, materials)
			gen := worldgen.New(seed, params)
			gen.GenerateFloor(grid, stone)
			renderGridToTexture(grid, stone, pixels, texture)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: previewW, Height: previewH},
			rl.Rectangle{X: 10, Y: 10, Width: previewW, Height: previewH},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Worldgen Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		newScale, changed := slider(panelX, &panelY, "Scale (noise frequency)", "0.01", "0.2", float32(params.Scale), 0.01, 0.2)
		if changed {
			params.Scale = float64(newScale)
			needsRegen = true
		}

		newOctaves, changed := slider(panelX, &panelY, "Octaves (FBM detail)", "1", "6", float32(params.Octaves), 1, 6)
		if changed {
			params.Octaves = int(newOctaves)
			needsRegen = true
		}

		newLacunarity, changed := slider(panelX, &panelY, "Lacunarity", "1.5", "4.0", float32(params.Lacunarity), 1.5, 4.0)
		if changed {
			params.Lacunarity = float64(newLacunarity)
			needsRegen = true
		}

		newGain, changed := slider(panelX, &panelY, "Gain", "0.2", "0.9", float32(params.Gain), 0.2, 0.9)
		if changed {
			params.Gain = float64(newGain)
			needsRegen = true
		}

		newFloorFrac, changed := slider(panelX, &panelY, "Floor height fraction", "0.1", "0.7", float32(params.FloorHeightFraction), 0.1, 0.7)
		if changed {
			params.FloorHeightFraction = float64(newFloorFrac)
			needsRegen = true
		}

		newFloorNoise, changed := slider(panelX, &panelY, "Floor noise amount", "0.0", "0.3", float32(params.FloorNoiseAmount), 0.0, 0.3)
		if changed {
			params.FloorNoiseAmount = float64(newFloorNoise)
			needsRegen = true
		}

		newCaveThreshold, changed := slider(panelX, &panelY, "Cave threshold", "0.3", "0.95", float32(params.CaveThreshold), 0.3, 0.95)
		if changed {
			params.CaveThreshold = float64(newCaveThreshold)
			needsRegen = true
		}

		newSeed, changed := slider(panelX, &panelY, "Seed", "0", "99999", float32(seed), 0, 99999)
		if changed {
			seed = int64(newSeed)
			needsRegen = true
		}
		panelY += 15

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = worldgen.DefaultParams()
			seed = 12345
			needsRegen = true
		}
		panelY += 50

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := []string{
			"worldgen:",
			fmt.Sprintf("  scale: %.3f", params.Scale),
			fmt.Sprintf("  octaves: %d", params.Octaves),
			fmt.Sprintf("  lacunarity: %.2f", params.Lacunarity),
			fmt.Sprintf("  gain: %.2f", params.Gain),
			fmt.Sprintf("  floor_height_fraction: %.2f", params.FloorHeightFraction),
			fmt.Sprintf("  floor_noise_amount: %.2f", params.FloorNoiseAmount),
			fmt.Sprintf("  cave_threshold: %.2f", params.CaveThreshold),
		}
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			yaml := fmt.Sprintf(`worldgen:
  scale: %.3f
  octaves: %d
  lacunarity: %.2f
  gain: %.2f
  floor_height_fraction: %.2f
  floor_noise_amount: %.2f
  cave_threshold: %.2f`,
				params.Scale, params.Octaves, params.Lacunarity, params.Gain,
				params.FloorHeightFraction, params.FloorNoiseAmount, params.CaveThreshold)
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// slider draws a labeled slider at (panelX, *panelY), advances *panelY past
// it, and reports the slider's value plus whether it changed from current.
func slider(panelX float32, panelY *float32, label, minLabel, maxLabel string, current, min, max float32) (float32, bool) {
	rl.DrawText(label, int32(panelX), int32(*panelY), 14, rl.Gray)
	*panelY += 18
	value := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: *panelY, Width: float32(panelWidth - 80), Height: 20},
		minLabel, maxLabel,
		current, min, max,
	)
	rl.DrawText(fmt.Sprintf("%.3f", value), int32(panelX+float32(panelWidth-70)), int32(*panelY+2), 16, rl.DarkGray)
	*panelY += 35
	return value, value != current
}

// renderGridToTexture colors every cell solid-or-air for a quick visual
// read of the carved floor silhouette.
func renderGridToTexture(grid *cellgrid.Grid, floorMaterial material.ID, pixels []color.RGBA, texture rl.Texture2D) {
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.GetCell(x, y) == floorMaterial {
				pixels[y*grid.Width+x] = color.RGBA{R: 120, G: 100, B: 70, A: 255}
			} else {
				pixels[y*grid.Width+x] = color.RGBA{R: 15, G: 18, B: 30, A: 255}
			}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
