// Driving field preview tool - interactive 2-D slice visualization with
// sliders for the driving parameters.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stir/config"
	"github.com/pthm-cable/stir/driving"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 128
)

// PreviewParams holds the driving parameters exposed to the sliders.
// Changing any of them rebuilds the generator from scratch.
type PreviewParams struct {
	SolWeight float32
	SpectForm int
	KMin      float32
	KMax      float32
	Seed      int32
}

func defaultParams() PreviewParams {
	return PreviewParams{
		SolWeight: 0.5,
		SpectForm: 1,
		KMin:      1.0,
		KMax:      3.0,
		Seed:      140281,
	}
}

func buildGenerator(p PreviewParams) (*driving.Generator, error) {
	cfg := config.Cfg().Turbulence
	cfg.SolWeight = float64(p.SolWeight)
	cfg.SpectForm = p.SpectForm
	cfg.KMin = float64(p.KMin)
	cfg.KMax = float64(p.KMax)
	cfg.RandomSeed = p.Seed

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return driving.New(cfg, driving.Options{Logger: quiet})
}

func main() {
	config.MustInit("")

	rl.InitWindow(windowWidth, windowHeight, "Driving Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()
	gen, err := buildGenerator(params)
	if err != nil {
		panic(err)
	}

	magGrid := make([]float64, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var time float32 = 0
	var sliceZ float32 = 0.5
	animating := false
	needsRegen := true
	var fieldRMS float64

	for !rl.WindowShouldClose() {
		if animating {
			time += rl.GetFrameTime()
			if gen.Advance(float64(time) * gen.Decay()) {
				needsRegen = true
			}
		}

		if needsRegen {
			fieldRMS = renderSlice(magGrid, gen, float64(sliceZ))
			updateTexture(texture, magGrid, gen.Summary().Velocity)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(gridSize), Height: float32(gridSize)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Modes: %d  Slice RMS: %.3f", gen.NModes(), fieldRMS), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.2f t_turb  Step: %d", time, gen.Step()), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Driving Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Solenoidal weight slider
		rl.DrawText("Sol weight (0 compressive, 1 solenoidal)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSol := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "1.0",
			params.SolWeight, 0.0, 1.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.SolWeight), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSol != params.SolWeight {
			params.SolWeight = newSol
			gen = rebuild(gen, params)
			needsRegen = true
		}
		panelY += 35

		// Band floor slider
		rl.DrawText("k_min (band floor, 2*pi/L units)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newKMin := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "8",
			params.KMin, 1, 8,
		)
		rl.DrawText(fmt.Sprintf("%.1f", params.KMin), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newKMin != params.KMin && newKMin <= params.KMax {
			params.KMin = newKMin
			gen = rebuild(gen, params)
			needsRegen = true
		}
		panelY += 35

		// Band ceiling slider
		rl.DrawText("k_max (band ceiling, 2*pi/L units)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newKMax := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "16",
			params.KMax, 1, 16,
		)
		rl.DrawText(fmt.Sprintf("%.1f", params.KMax), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newKMax != params.KMax && newKMax >= params.KMin {
			params.KMax = newKMax
			gen = rebuild(gen, params)
			needsRegen = true
		}
		panelY += 35

		// Spectrum form selector
		rl.DrawText("Spectrum form", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		formNames := []string{"Band", "Parabola", "Power law"}
		for i, name := range formNames {
			x := panelX + float32(i)*85
			label := name
			if params.SpectForm == i {
				label = "[" + name + "]"
			}
			if gui.Button(rl.Rectangle{X: x, Y: panelY, Width: 80, Height: 24}, label) {
				params.SpectForm = i
				gen = rebuild(gen, params)
				needsRegen = true
			}
		}
		panelY += 40

		// Slice position slider
		rl.DrawText("Slice z position", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSlice := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "1",
			sliceZ, 0, 1,
		)
		rl.DrawText(fmt.Sprintf("%.2f", sliceZ), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSlice != sliceZ {
			sliceZ = newSlice
			needsRegen = true
		}
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}

		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			time = 0
			gen = rebuild(gen, params)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = rl.GetRandomValue(1, 999999)
			gen = rebuild(gen, params)
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			time = 0
			gen = rebuild(gen, params)
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := []string{
			"turbulence:",
			fmt.Sprintf("  sol_weight: %.2f", params.SolWeight),
			fmt.Sprintf("  spect_form: %d", params.SpectForm),
			fmt.Sprintf("  k_min: %.1f", params.KMin),
			fmt.Sprintf("  k_max: %.1f", params.KMax),
			fmt.Sprintf("  random_seed: %d", params.Seed),
		}
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			yaml := fmt.Sprintf(`turbulence:
  sol_weight: %.2f
  spect_form: %d
  k_min: %.1f
  k_max: %.1f
  random_seed: %d`,
				params.SolWeight, params.SpectForm, params.KMin, params.KMax, params.Seed)
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// rebuild replaces the generator, keeping the old one on failure so a
// transient slider state never crashes the preview.
func rebuild(old *driving.Generator, p PreviewParams) *driving.Generator {
	gen, err := buildGenerator(p)
	if err != nil {
		return old
	}
	return gen
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// renderSlice fills the grid with vector magnitudes on a z slice and
// returns the slice RMS.
func renderSlice(grid []float64, gen *driving.Generator, sliceZ float64) float64 {
	min, max := gen.Bounds()
	z := min[2] + (max[2]-min[2])*sliceZ

	var sumSq float64
	for iy := 0; iy < gridSize; iy++ {
		y := min[1] + (max[1]-min[1])*float64(iy)/float64(gridSize)
		for ix := 0; ix < gridSize; ix++ {
			x := min[0] + (max[0]-min[0])*float64(ix)/float64(gridSize)
			vx, vy, vz := gen.Eval(x, y, z)
			mag := math.Sqrt(vx*vx + vy*vy + vz*vz)
			grid[iy*gridSize+ix] = mag
			sumSq += mag * mag
		}
	}
	return math.Sqrt(sumSq / float64(len(grid)))
}

// updateTexture updates the GPU texture from the magnitude grid.
func updateTexture(texture rl.Texture2D, grid []float64, velocity float64) {
	scale := 2.5 * velocity
	pixels := make([]color.RGBA, len(grid))
	for i, mag := range grid {
		v := float32(mag / scale)
		if v > 1 {
			v = 1
		}
		// Color gradient: dark blue -> cyan -> yellow -> white
		var r, g, b uint8
		if v < 0.25 {
			t := v / 0.25
			r = uint8(10 + t*30)
			g = uint8(20 + t*60)
			b = uint8(60 + t*100)
		} else if v < 0.5 {
			t := (v - 0.25) / 0.25
			r = uint8(40 + t*20)
			g = uint8(80 + t*120)
			b = uint8(160 + t*40)
		} else if v < 0.75 {
			t := (v - 0.5) / 0.25
			r = uint8(60 + t*140)
			g = uint8(200 - t*40)
			b = uint8(200 - t*150)
		} else {
			t := (v - 0.75) / 0.25
			r = uint8(200 + t*55)
			g = uint8(160 + t*95)
			b = uint8(50 + t*205)
		}
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
