package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	faceanalyzer "github.com/menta2k/face-analyzer"
	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/analyzer"
	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/mesh"
	"github.com/menta2k/face-analyzer/pkg/ollama"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// batchRow is one line of batch output.
type batchRow struct {
	File       string  `json:"file"`
	OK         bool    `json:"ok"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Abstain    bool    `json:"abstain,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// capturingDetector records the last detection so the CLI can draw a debug
// overlay without a second detector call.
type capturingDetector struct {
	client.FaceDetector
	last *types.Landmarks
}

func (d *capturingDetector) Detect(ctx context.Context, img image.Image) (*types.Landmarks, error) {
	landmarks, err := d.FaceDetector.Detect(ctx, img)
	d.last = landmarks
	return landmarks, err
}

func main() {
	var in, outDir, backend, url, model, configPath string
	var debug bool

	flag.StringVar(&in, "in", "", "input image path, URL, or directory (jpg/png/webp)")
	flag.StringVar(&outDir, "out", "out", "output directory for batch results and overlays")
	flag.StringVar(&backend, "backend", "", "detector backend: mesh or ollama (default from config)")
	flag.StringVar(&url, "url", "", "detector server URL (defaults: mesh=http://localhost:9090, ollama=http://localhost:11435)")
	flag.StringVar(&model, "model", "", "vision model name for the ollama backend")
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")
	flag.BoolVar(&debug, "debug", false, "write an overlay image with the face box and landmarks")
	flag.Parse()

	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL|dir [-backend mesh|ollama] [-url server_url] [-out outdir] [-debug]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if backend != "" {
		cfg.Detector.Backend = backend
	}
	if url != "" {
		cfg.Detector.ServerURL = url
	}
	if model != "" {
		cfg.Detector.Model = model
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	detector, err := newDetector(cfg.Detector)
	if err != nil {
		log.Fatal(err)
	}
	capture := &capturingDetector{FaceDetector: detector}

	fa := faceanalyzer.New(capture, analyzer.WithModelVersion(cfg.Analyzer.ModelVersion))
	defer fa.Close()

	ctx := context.Background()

	if info, err := os.Stat(in); err == nil && info.IsDir() {
		runBatch(ctx, fa, in, outDir)
		return
	}

	processor := processing.NewProcessor()
	img, err := processor.LoadImageSmart(in)
	if err != nil {
		log.Fatal(err)
	}
	bounds := img.Bounds()
	if bounds.Dx() < cfg.Analyzer.MinImageSize || bounds.Dy() < cfg.Analyzer.MinImageSize {
		log.Fatalf("image too small: %dx%d (minimum: %d)", bounds.Dx(), bounds.Dy(), cfg.Analyzer.MinImageSize)
	}

	result, err := fa.AnalyzeImage(ctx, img)
	if err != nil {
		log.Fatal(err)
	}

	js, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(js))

	if debug && capture.last != nil {
		writeOverlay(cfg, processor, img, in, outDir, capture.last)
	}
}

// newDetector builds the configured detection backend.
func newDetector(cfg config.DetectorConfig) (client.FaceDetector, error) {
	switch cfg.Backend {
	case "mesh":
		return mesh.NewClient(cfg.ServerURL)
	case "ollama":
		serverURL := cfg.ServerURL
		if serverURL == "" {
			serverURL = "http://localhost:11435"
		}
		visionClient, err := ollama.NewClient(serverURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return detection.NewLLMDetector(visionClient, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

// runBatch analyzes every image under dir and writes a results JSON file.
// Individual failures are recorded and the batch keeps going.
func runBatch(ctx context.Context, fa *faceanalyzer.FaceAnalyzer, dir, outDir string) {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatalf("no image files found under %s", dir)
	}

	rows := make([]batchRow, 0, len(files))
	for _, file := range files {
		result, err := fa.AnalyzeFile(ctx, file)
		if err != nil {
			log.Printf("%s: %v", file, err)
			rows = append(rows, batchRow{File: file, Error: err.Error()})
			continue
		}
		log.Printf("%s: label=%s conf=%.2f abstain=%v", file, result.Label, result.Confidence, result.Abstain)
		rows = append(rows, batchRow{
			File:       file,
			OK:         result.OK,
			Label:      result.Label,
			Confidence: result.Confidence,
			Abstain:    result.Abstain,
		})
	}

	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatal(err)
	}
	js, _ := json.MarshalIndent(map[string][]batchRow{"results": rows}, "", "  ")
	outPath := filepath.Join(outDir, "batch_results.json")
	if err := os.WriteFile(outPath, js, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", outPath)
}

// writeOverlay saves an annotated copy of the input next to the results.
func writeOverlay(cfg *config.Config, processor *processing.Processor, img image.Image, in, outDir string, landmarks *types.Landmarks) {
	if err := utils.EnsureDir(outDir); err != nil {
		log.Printf("overlay dir failed: %v", err)
		return
	}

	overlay := processor.DrawDebugOverlay(img, landmarks)
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_overlay.%s", name, strings.ToLower(cfg.Output.OverlayFormat)))
	if err := processor.SaveImage(overlay, outPath, cfg.Output.OverlayFormat, cfg.Output.OverlayQuality, false); err != nil {
		log.Printf("overlay save failed: %v", err)
		return
	}
	log.Printf("wrote %s", outPath)
}
