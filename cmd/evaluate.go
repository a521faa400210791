package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file]",
	Short: "Evaluate face detections against the acceptance policy",
	Long: `Read {"frame": {...}, "detections": [...]} JSON from a file or stdin and print
the verdict. Thresholds come from the configuration.

Examples:
  photo-framer evaluate detections.json
  echo '{"frame":{"width":250,"height":250},"detections":[{"x":65,"y":65,"width":120,"height":120}]}' | photo-framer evaluate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

// EvaluateInput is the JSON document read by the evaluate command.
type EvaluateInput struct {
	Frame      facecheck.Frame         `json:"frame"`
	Detections []facecheck.BoundingBox `json:"detections"`
}

// EvaluateOutput is the verdict printed by the evaluate command.
type EvaluateOutput struct {
	facecheck.Verdict
	Accepted bool `json:"accepted"`
}

func evaluateJSON(r io.Reader, policy facecheck.Policy) (EvaluateOutput, error) {
	var in EvaluateInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return EvaluateOutput{}, fmt.Errorf("decoding input: %w", err)
	}
	v, err := policy.Evaluate(in.Detections, in.Frame)
	if err != nil {
		return EvaluateOutput{}, err
	}
	return EvaluateOutput{Verdict: v, Accepted: v.Accepted()}, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out, err := evaluateJSON(in, cfg.Policy.Policy())
	if err != nil {
		return err
	}
	return outputJSON(out)
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
