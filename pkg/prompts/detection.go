package prompts

import (
	"fmt"
	"strings"
)

// DetectionSystemMessage frames the vision model for part detection.
const DetectionSystemMessage = "You are an expert LEGO part identifier. You answer with JSON only."

// BrickCategories are the height/shape classes the model is asked to distinguish.
var BrickCategories = []struct {
	Name        string
	Description string
}{
	{"Brick", "tall, with studs"},
	{"Plate", "flat with studs, one third the height of a brick"},
	{"Tile", "flat and smooth, no studs"},
	{"Slope", "angled top surface"},
	{"Technic", "beams, pins, axles and gears"},
}

// BuildDetectionPrompt creates the instruction sent with every photo. The model
// returns all visible parts in one response with boxes in 0-1000 coordinates.
func BuildDetectionPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("# LEGO Part Detection\n\n")
	prompt.WriteString("Find every individual LEGO part visible in this photo.\n\n")

	prompt.WriteString("## Instructions\n\n")
	prompt.WriteString("1. Report each physical part separately, even when identical parts appear more than once.\n")
	prompt.WriteString("2. For bricks and plates count the studs (e.g. 2x4, 1x2, 1x1).\n")
	prompt.WriteString("3. Name the color using standard LEGO color names (e.g. \"dark bluish gray\", \"trans clear\").\n")
	prompt.WriteString("4. Distinguish the part category:\n")
	for _, c := range BrickCategories {
		prompt.WriteString(fmt.Sprintf("   - %s: %s\n", c.Name, c.Description))
	}
	prompt.WriteString("5. Use depth cues to tell bricks from plates. For a top-down view assume Brick unless it is obviously flat.\n\n")

	prompt.WriteString("## Bounding Boxes\n\n")
	prompt.WriteString("Give each part a tight box as [ymin, xmin, ymax, xmax] normalized to 0-1000, ")
	prompt.WriteString("where (0, 0) is the top-left corner of the image.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with a JSON object only:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "detections": [
    {"label": "red 2x4 brick", "box_2d": [120, 340, 260, 520], "confidence": 85}
  ]
}`)
	prompt.WriteString("\n```\n\n")
	prompt.WriteString("`label` must include the color and the part description. ")
	prompt.WriteString("`confidence` is your confidence from 0 to 100. ")
	prompt.WriteString("If no parts are visible return {\"detections\": []}.\n")

	return prompt.String()
}
