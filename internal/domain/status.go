package domain

import "strings"

// statusColors maps SPAN's cell background colors to storage-category labels.
var statusColors = map[string]string{
	"green":  "Paras Normal",
	"orange": "Paras Waspada",
	"yellow": "Paras Amaran",
	"red":    "Paras Kritikal",
}

// StatusForStyle decodes a storage-category label from an inline style
// attribute ("background:orange" or "background-color:orange"). Returns the
// empty string when no recognized color is present; unknown colors are data,
// not errors.
func StatusForStyle(style string) string {
	style = strings.ToLower(style)
	for color, label := range statusColors {
		if strings.Contains(style, "background:"+color) ||
			strings.Contains(style, "background-color:"+color) {
			return label
		}
	}
	return ""
}
