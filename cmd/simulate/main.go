package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-coparenting-be/pkg/safety"
	"ai-coparenting-be/pkg/safety/classifier"
	"ai-coparenting-be/pkg/safety/detector"
	"ai-coparenting-be/pkg/safety/pipeline"
	"ai-coparenting-be/pkg/style"

	"github.com/fatih/color"
)

// Offline sandbox for the safety gate: pipe candidate texts in, see the
// verdict the engine would act on. No database, no LLM, no server.
func main() {
	threshold := flag.Float64("threshold", 0.30, "blocking threshold (letter 0.30, quest 0.25)")
	flag.Parse()

	safetyDetector := detector.NewDetector()
	safetyClassifier := classifier.NewClassifier(
		os.Getenv("SAFETY_CLASSIFIER_BASE_URL"),
		os.Getenv("SAFETY_CLASSIFIER_API_KEY"),
		os.Getenv("SAFETY_CLASSIFIER_MODEL"),
	)
	gate := pipeline.NewPipeline(safetyDetector, safetyClassifier, nil, log.Default())
	stylist := style.NewAnalyzer()

	texts := flag.Args()
	if len(texts) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				texts = append(texts, line)
			}
		}
	}

	for _, text := range texts {
		fmt.Printf("\nTEXT: %s\n", text)

		verdict := gate.Evaluate(context.Background(), text, *threshold, false)
		printVerdict(verdict)

		dims, score := stylist.Analyze(text)
		fmt.Printf("STYLE %.2f:", score)
		for _, d := range style.Dimensions {
			if dims[d] {
				color.Green(" +%s", d)
			} else {
				color.Red(" -%s", d)
			}
		}
	}
}

func printVerdict(v *safety.Verdict) {
	status := color.New(color.FgGreen, color.Bold)
	if v.IsBlocking {
		status = color.New(color.FgRed, color.Bold)
	}
	status.Printf("SCORE %.2f blocking=%v\n", v.OverallScore, v.IsBlocking)

	for _, f := range v.Findings {
		line := fmt.Sprintf("  [%s/%s] %s: %q", f.Category, f.Severity, f.Message, f.Evidence)
		switch f.Severity {
		case safety.SeverityCritical, safety.SeverityHigh:
			color.Red("%s", line)
		case safety.SeverityMedium:
			color.Yellow("%s", line)
		default:
			color.White("%s", line)
		}
	}
}
