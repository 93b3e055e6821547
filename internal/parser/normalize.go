package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var multiSpaceRE = regexp.MustCompile(`\s+`)

func normaliseInput(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	runes := []rune(raw)
	var b strings.Builder
	lastSpace := true
	for i, r := range runes {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '%' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		// Keep a sign that starts a number, e.g. "-0.1" or "+5%".
		if (r == '-' || r == '+') && lastSpace && i+1 < len(runes) && isNumberRune(runes[i+1]) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-' || r == '_' || r == '/' || r == '\'' || r == ',' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(multiSpaceRE.ReplaceAllString(b.String(), " "))
}

func isNumberRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.'
}

func tokenise(normalised string) []string {
	if strings.TrimSpace(normalised) == "" {
		return nil
	}
	return strings.Fields(normalised)
}

// parseIndex reads a 1-based target index such as "3", "c3" or "v2".
func parseIndex(token string) (int, bool) {
	token = strings.TrimSpace(strings.ToLower(token))
	if len(token) > 1 {
		switch token[0] {
		case 'c', 'v', 'p':
			token = token[1:]
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parseAmountToken reads fractional, signed or percentage operands. Plain
// integers are only accepted when allowInteger is set; they are read as
// percentages when above one.
func parseAmountToken(token string, allowInteger bool) *Amount {
	token = strings.TrimSpace(strings.ToLower(token))
	if token == "" {
		return nil
	}
	if strings.HasSuffix(token, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(token, "%"), 64)
		if err != nil {
			return nil
		}
		return &Amount{Raw: token, Value: v / 100, Percent: true}
	}
	signed := strings.HasPrefix(token, "+") || strings.HasPrefix(token, "-")
	if !signed && !strings.Contains(token, ".") {
		if !allowInteger {
			return nil
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil
		}
		if n > 1 {
			return &Amount{Raw: token, Value: float64(n) / 100, Percent: true}
		}
		return &Amount{Raw: token, Value: float64(n)}
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &Amount{Raw: token, Value: v}
}

func isPronoun(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "it", "that", "this", "selected", "current", "here":
		return true
	default:
		return false
	}
}

// mapRodDirection returns "up" for withdrawing a rod and "down" for
// inserting it.
func mapRodDirection(token string) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "up", "out", "raise", "withdraw", "pull":
		return "up"
	case "down", "in", "lower", "insert", "push":
		return "down"
	default:
		return ""
	}
}

func mapValveState(token string) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "open", "on", "opened":
		return "open"
	case "close", "closed", "shut", "off":
		return "close"
	case "toggle", "flip", "switch":
		return "toggle"
	default:
		return ""
	}
}

func mapSwitch(token string) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "on", "enable", "engage", "yes":
		return "on"
	case "off", "disable", "disengage", "no":
		return "off"
	case "toggle", "flip":
		return "toggle"
	default:
		return ""
	}
}
