package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/detector"
	"github.com/kozaktomas/photo-framer/internal/editor"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/kozaktomas/photo-framer/internal/imagesource"
	"github.com/kozaktomas/photo-framer/internal/logging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var checkCmd = &cobra.Command{
	Use:   "check <image>...",
	Short: "Check whether photos frame a single centred face",
	Long: `Run the same pipeline as the browser editor on local image files:
decode, pick a start position, render the editor view, detect faces and
evaluate them against the acceptance policy.

Examples:
  photo-framer check me.jpg
  photo-framer check --scale 1.5 --pos-x 0.4 team/*.png
  photo-framer check --json portrait.webp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Float64("scale", editor.DefaultScale, "Zoom factor (1-2)")
	checkCmd.Flags().Float64("pos-x", -1, "Horizontal window center (0-1); default picks it automatically")
	checkCmd.Flags().Float64("pos-y", -1, "Vertical window center (0-1); default picks it automatically")
	checkCmd.Flags().Int("concurrency", 4, "Number of images checked in parallel")
	checkCmd.Flags().Bool("json", false, "Output as JSON")
}

// CheckResult is the outcome for one file.
type CheckResult struct {
	File     string             `json:"file"`
	Editor   editor.State       `json:"editor"`
	Faces    int                `json:"faces"`
	Verdict  *facecheck.Verdict `json:"verdict,omitempty"`
	Accepted bool               `json:"accepted"`
	Error    string             `json:"error,omitempty"`
}

// checkPipeline holds what every file in a check run shares.
type checkPipeline struct {
	det        detector.Detector
	policy     facecheck.Policy
	frame      facecheck.Frame
	editorSize int
	scale      float64
	posX, posY float64
}

func (p *checkPipeline) run(ctx context.Context, path string) CheckResult {
	res := CheckResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	img, err := imagesource.Decode(data, "")
	if err != nil {
		res.Error = err.Error()
		return res
	}

	state := editor.DefaultState()
	if p.posX < 0 || p.posY < 0 {
		if suggested, err := editor.SuggestPosition(ctx, img); err == nil {
			state = suggested
		}
	}
	state.Scale = p.scale
	if p.posX >= 0 {
		state.PosX = p.posX
	}
	if p.posY >= 0 {
		state.PosY = p.posY
	}
	res.Editor = state.Normalize()

	view, err := editor.Render(img, res.Editor, p.editorSize)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	boxes, err := p.det.Detect(ctx, view)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Faces = len(boxes)

	verdict, err := p.policy.Evaluate(facecheck.ToFrame(boxes, p.editorSize, p.frame), p.frame)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Verdict = &verdict
	res.Accepted = verdict.Accepted()
	return res
}

// checkFiles runs the pipeline over all files with bounded parallelism.
func checkFiles(ctx context.Context, p *checkPipeline, files []string, concurrency int, bar *progressbar.ProgressBar) []CheckResult {
	results := make([]CheckResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))

	for i, file := range files {
		g.Go(func() error {
			results[i] = p.run(ctx, file)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// newCheckProgressBar creates a progress bar for the check run, or nil if JSON output.
func newCheckProgressBar(count int, jsonOutput bool) *progressbar.ProgressBar {
	if jsonOutput {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Checking photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logging.L()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	scale := mustGetFloat64(cmd, "scale")
	if scale < editor.MinScale || scale > editor.MaxScale {
		return fmt.Errorf("--scale must be between %v and %v", editor.MinScale, editor.MaxScale)
	}
	jsonOutput := mustGetBool(cmd, "json")

	det, err := newDetector(cfg)
	if err != nil {
		return err
	}
	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := det.Load(loadCtx); err != nil {
		return fmt.Errorf("loading face model: %w", err)
	}
	log.WithField("backend", det.Name()).Debug("Face model loaded")

	p := &checkPipeline{
		det:        det,
		policy:     cfg.Policy.Policy(),
		frame:      cfg.Frame.Frame(),
		editorSize: cfg.Frame.EditorSize,
		scale:      scale,
		posX:       mustGetFloat64(cmd, "pos-x"),
		posY:       mustGetFloat64(cmd, "pos-y"),
	}

	bar := newCheckProgressBar(len(args), jsonOutput)
	results := checkFiles(ctx, p, args, mustGetInt(cmd, "concurrency"), bar)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	if jsonOutput {
		return outputJSON(results)
	}
	printCheckResults(results)
	return nil
}

func printCheckResults(results []CheckResult) {
	accepted := 0
	for _, r := range results {
		name := filepath.Base(r.File)
		switch {
		case r.Error != "":
			fmt.Printf("  ERROR  %s: %s\n", name, r.Error)
		case r.Accepted:
			accepted++
			fmt.Printf("  OK     %s (scale %.2f, pos %.2f/%.2f)\n", name, r.Editor.Scale, r.Editor.PosX, r.Editor.PosY)
		default:
			fmt.Printf("  REJECT %s: %s\n", name, r.Verdict.PrimaryMessage)
			if r.Verdict.SizeMessage != "" {
				fmt.Printf("         %s\n", r.Verdict.SizeMessage)
			}
		}
	}
	fmt.Printf("\n%d of %d photos accepted\n", accepted, len(results))
}
