package translate

import (
	"fmt"
	"strconv"
	"strings"
)

// specialSizes maps well-known OpenAI pixel sizes directly to an aspect
// ratio string, overriding the GCD computation (invariant 5).
var specialSizes = map[string]string{
	"256x256":   "1:1",
	"512x512":   "1:1",
	"1024x1024": "1:1",
	"2048x2048": "1:1",
	"1792x1024": "16:9",
	"1024x1792": "9:16",
	"1152x768":  "3:2",
	"768x1152":  "2:3",
}

// AspectRatio converts an OpenAI WxH size string into the upstream's
// aspect-ratio form. Special sizes use the lookup table; anything else
// is GCD-reduced: for WxH where g = gcd(W,H), the output is "W/g:H/g".
func AspectRatio(size string) (string, bool) {
	if size == "" {
		return "", false
	}
	if ratio, ok := specialSizes[size]; ok {
		return ratio, true
	}

	w, h, ok := parseWxH(size)
	if !ok || w <= 0 || h <= 0 {
		return "", false
	}
	g := gcd(w, h)
	return fmt.Sprintf("%d:%d", w/g, h/g), true
}

func parseWxH(size string) (int, int, bool) {
	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return w, h, true
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
