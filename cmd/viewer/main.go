// Interactive viewer for the cell simulation: pans a texture-backed window
// over the grid, paints materials with the mouse, and places belt/lift
// structures.
//
// Usage: go run ./cmd/viewer
package main

import (
	"flag"
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/material"
	"github.com/pthm-cable/cellsim/sim"
	"github.com/pthm-cable/cellsim/worldgen"
)

var (
	configPath = flag.String("config", "", "path to a YAML config overriding embedded defaults")
	seed       = flag.Int64("seed", 1, "worldgen noise seed")
)

const (
	windowWidth  = 1280
	windowHeight = 800
	viewCells    = 256 // viewport width/height, in cells
)

// placeMode selects what a left click does.
type placeMode int

const (
	modePaintSand placeMode = iota
	modePaintStone
	modePlaceBelt
	modeRemoveBelt
	modePlaceLift
	modeRemoveLift
)

func main() {
	flag.Parse()

	config.MustInit(*configPath)
	cfg := config.Cfg()

	world := sim.New(cfg, nil, nil)
	gen := worldgen.New(*seed, worldgen.DefaultParams())
	gen.GenerateFloor(world.Grid, cfg.MaterialID("Stone"))

	rl.InitWindow(windowWidth, windowHeight, "cellsim viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	img := rl.GenImageColor(viewCells, viewCells, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	pixels := make([]color.RGBA, viewCells*viewCells)

	camX, camY := 0, 0
	paused := false
	mode := modePaintSand

	for !rl.WindowShouldClose() {
		handleCamera(&camX, &camY, world.Grid.Width, world.Grid.Height)
		handleModeKeys(&mode)

		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}

		mx, my := mouseCell(camX, camY)
		if world.InBounds(mx, my) {
			if rl.IsMouseButtonDown(rl.MouseLeftButton) {
				applyPlacement(world, cfg, mode, mx, my)
			}
		}

		if !paused {
			world.SimulateFrame(float32ToFloat64(rl.GetFrameTime()))
		}

		renderViewport(world, camX, camY, pixels, texture)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: viewCells, Height: viewCells},
			rl.Rectangle{X: 0, Y: 0, Width: windowHeight, Height: windowHeight},
			rl.Vector2{},
			0,
			rl.White,
		)

		drawPanel(world, &paused, mode)

		rl.EndDrawing()
	}
}

func float32ToFloat64(f float32) float64 { return float64(f) }

func handleCamera(camX, camY *int, gridW, gridH int) {
	const step = 4
	if rl.IsKeyDown(rl.KeyRight) {
		*camX += step
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		*camX -= step
	}
	if rl.IsKeyDown(rl.KeyDown) {
		*camY += step
	}
	if rl.IsKeyDown(rl.KeyUp) {
		*camY -= step
	}
	if *camX < 0 {
		*camX = 0
	}
	if *camY < 0 {
		*camY = 0
	}
	if *camX > gridW-viewCells {
		*camX = gridW - viewCells
	}
	if *camY > gridH-viewCells {
		*camY = gridH - viewCells
	}
}

func handleModeKeys(mode *placeMode) {
	switch {
	case rl.IsKeyPressed(rl.KeyOne):
		*mode = modePaintSand
	case rl.IsKeyPressed(rl.KeyTwo):
		*mode = modePaintStone
	case rl.IsKeyPressed(rl.KeyThree):
		*mode = modePlaceBelt
	case rl.IsKeyPressed(rl.KeyFour):
		*mode = modeRemoveBelt
	case rl.IsKeyPressed(rl.KeyFive):
		*mode = modePlaceLift
	case rl.IsKeyPressed(rl.KeySix):
		*mode = modeRemoveLift
	}
}

func mouseCell(camX, camY int) (int, int) {
	pos := rl.GetMousePosition()
	scale := float32(viewCells) / float32(windowHeight)
	return camX + int(pos.X*scale), camY + int(pos.Y*scale)
}

func applyPlacement(world *sim.World, cfg *config.Config, mode placeMode, x, y int) {
	switch mode {
	case modePaintSand:
		world.SetCell(x, y, cfg.MaterialID("Sand"))
	case modePaintStone:
		world.SetCell(x, y, cfg.MaterialID("Stone"))
	case modePlaceBelt:
		bx, by := sim.SnapToGrid(x), sim.SnapToGrid(y)
		world.PlaceBelt(bx, by, 1)
	case modeRemoveBelt:
		world.RemoveBelt(x, y)
	case modePlaceLift:
		bx, by := sim.SnapToGrid(x), sim.SnapToGrid(y)
		world.PlaceLift(bx, by)
	case modeRemoveLift:
		world.RemoveLift(x, y)
	}
}

// renderViewport samples a viewCells x viewCells window of the grid into
// pixels, colors each cell by material, and uploads the result to texture.
func renderViewport(world *sim.World, camX, camY int, pixels []color.RGBA, texture rl.Texture2D) {
	for ly := 0; ly < viewCells; ly++ {
		for lx := 0; lx < viewCells; lx++ {
			id := world.GetCell(camX+lx, camY+ly)
			pixels[ly*viewCells+lx] = colorFor(world.Materials.Get(id), world.GetCell(camX+lx, camY+ly))
		}
	}
	rl.UpdateTexture(texture, pixels)
}

// colorFor maps a material definition to a display color. There is no
// authored palette; behavior and a name hash give every material a stable,
// visually distinct color without a config table to keep in sync.
func colorFor(def material.Def, id material.ID) color.RGBA {
	if id == material.Air {
		return color.RGBA{R: 10, G: 12, B: 20, A: 255}
	}
	h := fnv32(def.Name)
	switch def.Behavior {
	case material.Powder:
		return color.RGBA{R: 200 - uint8(h%40), G: 170 - uint8(h%30), B: 90, A: 255}
	case material.Liquid:
		return color.RGBA{R: 40, G: 80 + uint8(h%60), B: 160 + uint8(h%60), A: 255}
	case material.Gas:
		return color.RGBA{R: 180, G: 180, B: 190, A: 180}
	default:
		return color.RGBA{R: 90 + uint8(h%100), G: 90 + uint8((h>>8)%100), B: 90 + uint8((h>>16)%100), A: 255}
	}
}

func fnv32(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func drawPanel(world *sim.World, paused *bool, mode placeMode) {
	panelX := float32(windowHeight + 20)
	y := float32(10)

	rl.DrawText("cellsim viewer", int32(panelX), int32(y), 20, rl.RayWhite)
	y += 30

	rl.DrawText(fmt.Sprintf("frame: %d", world.CurrentFrame()), int32(panelX), int32(y), 16, rl.LightGray)
	y += 20
	rl.DrawText(fmt.Sprintf("mode: %s", modeLabel(mode)), int32(panelX), int32(y), 16, rl.LightGray)
	y += 20
	rl.DrawText("1-6: paint/belt/lift modes", int32(panelX), int32(y), 14, rl.Gray)
	y += 18
	rl.DrawText("arrows: pan, space: pause", int32(panelX), int32(y), 14, rl.Gray)
	y += 30

	timings := world.LastFrameTimings()
	rl.DrawText("last_frame_timings (ms):", int32(panelX), int32(y), 14, rl.Gray)
	y += 18
	rl.DrawText(fmt.Sprintf("cluster_physics %.2f", timings.ClusterPhysicsMS), int32(panelX), int32(y), 12, rl.LightGray)
	y += 14
	rl.DrawText(fmt.Sprintf("cluster_sync    %.2f", timings.ClusterSyncMS), int32(panelX), int32(y), 12, rl.LightGray)
	y += 14
	rl.DrawText(fmt.Sprintf("cell groups a-d %.2f/%.2f/%.2f/%.2f",
		timings.CellGroupAMS, timings.CellGroupBMS, timings.CellGroupCMS, timings.CellGroupDMS), int32(panelX), int32(y), 12, rl.LightGray)
	y += 14
	rl.DrawText(fmt.Sprintf("belt_sim        %.2f", timings.BeltSimMS), int32(panelX), int32(y), 12, rl.LightGray)
	y += 14
	rl.DrawText(fmt.Sprintf("terrain_collide %.2f", timings.TerrainCollidersMS), int32(panelX), int32(y), 12, rl.LightGray)
	y += 30

	if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, toggleText(*paused, "Resume", "Pause")) {
		*paused = !*paused
	}
}

func modeLabel(mode placeMode) string {
	switch mode {
	case modePaintSand:
		return "paint sand"
	case modePaintStone:
		return "paint stone"
	case modePlaceBelt:
		return "place belt"
	case modeRemoveBelt:
		return "remove belt"
	case modePlaceLift:
		return "place lift"
	case modeRemoveLift:
		return "remove lift"
	default:
		return "?"
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
