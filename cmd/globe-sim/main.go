package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/region-globe/internal/logging"
	"github.com/signalsfoundry/region-globe/internal/scene"
	"github.com/signalsfoundry/region-globe/kb"
	"github.com/signalsfoundry/region-globe/model"
	"github.com/signalsfoundry/region-globe/timectrl"
)

func main() {
	route := flag.String("tour", "caribbean,africa,europe,asia,,global,", "comma-separated region IDs to visit; an empty entry returns to the overview")
	fps := flag.Int("fps", 60, "frames per simulated second")
	maxFrames := flag.Int("max-frames", 2000, "frame budget per leg before giving up")
	every := flag.Int("every", 10, "print camera progress every N frames (0 = arrivals only)")
	countries := flag.String("countries", "", "optional GeoJSON country file to mesh before the tour")
	flag.Parse()

	log := logging.NewFromEnv()

	regions := kb.NewRegionCatalog()
	if err := kb.LoadDefaults(regions); err != nil {
		fmt.Fprintf(os.Stderr, "load regions: %v\n", err)
		os.Exit(1)
	}
	sc := scene.New(regions, scene.WithLogger(log))
	defer sc.Close()

	if *countries != "" {
		f, err := os.Open(*countries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open countries: %v\n", err)
			os.Exit(1)
		}
		err = sc.LoadDataset(context.Background(), f, 0)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		snap := sc.Snapshot()
		fmt.Printf("Loaded %d countries, %d mesh parts\n", snap.Countries, snap.MeshParts)
	}

	if *fps <= 0 {
		fmt.Fprintln(os.Stderr, "-fps must be positive")
		os.Exit(1)
	}
	loop := timectrl.NewFrameLoop(time.Time{}, time.Second/time.Duration(*fps), timectrl.Accelerated)
	legs := parseTour(*route)

	fmt.Printf("Starting tour: legs=%d, interval=%s, mode=%v\n", len(legs), loop.Interval, loop.Mode)
	results := runTour(os.Stdout, sc, loop, legs, *maxFrames, *every)
	for _, r := range results {
		if !r.Arrived {
			os.Exit(2)
		}
	}
	fmt.Println("Tour complete.")
}

// parseTour splits a comma-separated route. Whitespace is trimmed and an
// empty entry stands for the overview.
func parseTour(route string) []model.Selection {
	if strings.TrimSpace(route) == "" {
		return nil
	}
	parts := strings.Split(route, ",")
	legs := make([]model.Selection, 0, len(parts))
	for _, p := range parts {
		legs = append(legs, model.Selection(strings.TrimSpace(p)))
	}
	return legs
}

type legResult struct {
	Target   model.Selection
	Resolved bool
	Frames   int
	Arrived  bool
}

// runTour selects each leg in turn and steps the loop until the camera
// settles or the frame budget runs out.
func runTour(w io.Writer, sc *scene.Scene, loop *timectrl.FrameLoop, legs []model.Selection, maxFrames, every int) []legResult {
	frames := 0
	loop.AddListener(func(f timectrl.Frame) {
		sc.Tick(f.Delta)
		frames++
		if every > 0 && frames%every == 0 {
			printCamera(w, "  ", f, sc.Snapshot())
		}
	})

	results := make([]legResult, 0, len(legs))
	for _, leg := range legs {
		_, resolved := sc.Select(context.Background(), leg)
		name := string(leg)
		if leg.IsNone() {
			name = "overview"
		}
		fmt.Fprintf(w, "-> %s (resolved=%v)\n", name, resolved)

		frames = 0
		res := legResult{Target: leg, Resolved: resolved}
		for frames < maxFrames {
			f := loop.Step(loop.Interval)
			if !sc.Snapshot().Camera.Animating {
				res.Arrived = true
				printCamera(w, "   arrived ", f, sc.Snapshot())
				break
			}
		}
		res.Frames = frames
		if !res.Arrived {
			fmt.Fprintf(w, "   gave up after %d frames\n", frames)
		}
		results = append(results, res)
	}
	return results
}

func printCamera(w io.Writer, prefix string, f timectrl.Frame, snap scene.Snapshot) {
	p := snap.Camera.Position
	l := snap.Camera.LookAt
	fmt.Fprintf(w, "%s[frame %5d] camera=(%6.3f, %6.3f, %6.3f) lookAt=(%6.3f, %6.3f, %6.3f) yaw=%6.3f\n",
		prefix, f.Index, p.X, p.Y, p.Z, l.X, l.Y, l.Z, snap.GlobeYaw)
}
