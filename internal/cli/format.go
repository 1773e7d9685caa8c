package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/accent/internal/colour"
	"github.com/jmylchreest/accent/internal/style"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatCSS  = "css"
)

// formatOptions controls how an extraction result is rendered.
type formatOptions struct {
	Format     string
	Candidates bool
	Preview    bool
	Variables  style.Variables
	Selector   string
}

// formatResult renders res in the requested format.
func formatResult(res colour.Result, opts formatOptions) (string, error) {
	switch opts.Format {
	case formatText, "":
		return renderText(res, opts), nil
	case formatJSON:
		var v any = res.Palette
		if opts.Candidates {
			v = res
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case formatYAML:
		var v any = res.Palette
		if opts.Candidates {
			v = res
		}
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert to YAML: %w", err)
		}
		return string(data), nil
	case formatCSS:
		sheet := style.NewStylesheet("", opts.Selector)
		for _, prop := range opts.Variables.Assignments(res.Palette) {
			if err := sheet.SetProperty(prop.Name, prop.Value); err != nil {
				return "", err
			}
		}
		data, err := sheet.Render()
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: text, json, yaml, css)", opts.Format)
	}
}

func renderText(res colour.Result, opts formatOptions) string {
	var b strings.Builder

	primaryLabel, secondaryLabel := "primary", "secondary"
	if res.PrimaryFallback {
		primaryLabel += "*"
	}
	if res.SecondaryFallback {
		secondaryLabel += "*"
	}
	b.WriteString(colour.FormatColourWithLabel(res.Primary, primaryLabel, 8, opts.Preview) + "\n")
	b.WriteString(colour.FormatColourWithLabel(res.Secondary, secondaryLabel, 8, opts.Preview) + "\n")

	if opts.Candidates {
		b.WriteString("\n")
		b.WriteString(candidateTable(res.Candidates, opts.Preview).Render())
		fmt.Fprintf(&b, "\n%d of %d pixels kept\n", res.Kept, res.Pixels)
	}
	if res.PrimaryFallback || res.SecondaryFallback {
		b.WriteString("* derived from the top candidate\n")
	}
	return b.String()
}

// candidateTable lists the ranked buckets with their score inputs.
func candidateTable(candidates []colour.Candidate, preview bool) *Table {
	headers := []string{"#", "Bucket", "Hex", "Hue", "Count", "Sat", "Score"}
	if preview {
		headers = append([]string{""}, headers...)
	}

	table := NewTable(headers)
	offset := len(headers) - 7
	for col := 3; col < 7; col++ {
		table.AlignRight(col + offset)
	}
	table.AlignRight(offset)

	for i, c := range candidates {
		cf := toColorful(c.Bucket)
		h, _, _ := cf.Hsl()
		row := []string{
			strconv.Itoa(i + 1),
			c.Bucket.String(),
			cf.Hex(),
			fmt.Sprintf("%.0f", h),
			strconv.Itoa(c.Count),
			fmt.Sprintf("%.2f", c.Saturation),
			fmt.Sprintf("%.1f", c.Score()),
		}
		if preview {
			row = append([]string{colour.ColourPreview(c.Bucket, 4)}, row...)
		}
		table.AddRow(row)
	}
	return table
}

func toColorful(c colour.RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
