package chart

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

//go:embed colors.json
var colorsJSON []byte

type colorEntry struct {
	Color *string `json:"color"`
}

// DefaultColors returns the language to hex color table shipped with the
// binary, a subset of the GitHub linguist palette. Languages without a
// defined color are omitted.
func DefaultColors() (map[string]string, error) {
	var entries map[string]colorEntry
	if err := json.Unmarshal(colorsJSON, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded color table: %w", err)
	}

	colors := make(map[string]string, len(entries))
	for language, entry := range entries {
		if entry.Color != nil {
			colors[language] = *entry.Color
		}
	}
	return colors, nil
}

func parseHexColor(hex string) (drawing.Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q", hex)
	}

	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return drawing.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	return drawing.Color{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, nil
}
