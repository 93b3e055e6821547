package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

type Parser struct {
	registry *Registry
}

func New() *Parser {
	return &Parser{registry: DefaultRegistry()}
}

func (p *Parser) RegisterCommand(c CommandDef) {
	p.registry.RegisterCommand(c)
}

func (p *Parser) Parse(ctx ParseContext, raw string) Intent {
	intent := Intent{
		Raw:        raw,
		Normalised: normaliseInput(raw),
		Kind:       Unknown,
		Confidence: 0,
	}
	if intent.Normalised == "" {
		intent.Clarify = &ClarifyQuestion{Prompt: "Enter a command.", Options: nil}
		return intent
	}

	tokens := tokenise(intent.Normalised)
	cmdMatch, alternates := p.registry.matchCommand(tokens)
	if cmdMatch.Canonical == "" || cmdMatch.Score < 0.5 {
		inferred := inferFreeTextIntent(ctx, intent.Raw, intent.Normalised)
		if inferred != nil {
			return *inferred
		}
		intent.Clarify = &ClarifyQuestion{
			Prompt: "I couldn't map that to a command. Try help, status, rod, raise, lower, valve, pump, scram, pause, resume, auto, abandon.",
		}
		return intent
	}

	if len(alternates) > 0 && (cmdMatch.Score-alternates[0].Score) < 0.05 && alternates[0].Score > 0.65 {
		options := []Intent{
			{
				Raw:        raw,
				Normalised: cmdMatch.Canonical,
				Kind:       commandKind(cmdMatch.Canonical),
				Verb:       cmdMatch.Canonical,
				Confidence: cmdMatch.Score,
			},
			{
				Raw:        raw,
				Normalised: alternates[0].Canonical,
				Kind:       commandKind(alternates[0].Canonical),
				Verb:       alternates[0].Canonical,
				Confidence: alternates[0].Score,
			},
		}
		intent.Clarify = &ClarifyQuestion{
			Prompt:  "Did you mean:",
			Options: options,
		}
		return intent
	}

	intent.Verb = cmdMatch.Canonical
	intent.Kind = commandKind(intent.Verb)
	intent.Confidence = clampScore(cmdMatch.Score)

	argsTokens := tokens
	if cmdMatch.Consumed > 0 && len(tokens) >= cmdMatch.Consumed {
		argsTokens = tokens[cmdMatch.Consumed:]
	}

	argsTokens = dropFiller(argsTokens)

	def, _ := p.registry.command(intent.Verb)
	if def.MaxArgs >= 0 && len(argsTokens) > def.MaxArgs {
		argsTokens = append([]string(nil), argsTokens[:def.MaxArgs]...)
		intent.Confidence = clampScore(intent.Confidence - 0.05)
	}

	resolved, clarify, argScore := resolveArgs(ctx, def, argsTokens)
	if clarify != nil {
		intent.Clarify = clarify
		intent.Confidence = 0.45
		return intent
	}
	intent.Args = resolved.args
	intent.Target = resolved.target
	intent.Amount = resolved.amount
	intent.Confidence = clampScore((intent.Confidence * 0.75) + (argScore * 0.25))

	if len(intent.Args) < def.MinArgs {
		intent.Clarify = &ClarifyQuestion{Prompt: fmt.Sprintf("%s needs at least %d argument(s).", def.Canonical, def.MinArgs)}
		intent.Confidence = 0.42
		return intent
	}

	if intent.Confidence < 0.52 && intent.Clarify == nil {
		intent.Clarify = &ClarifyQuestion{Prompt: "I have low confidence in that parse. Please rephrase or pick a clearer command."}
	}
	return intent
}

// dropFiller removes words that only name what the verb already implies,
// so "raise rod 3" and "pump 1 to 50%" read like "raise 3" and "pump 1 50%".
func dropFiller(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		switch token {
		case "the", "a", "rod", "rods", "cell", "valve", "circuit", "pump", "number", "to", "by", "at", "of":
			continue
		}
		out = append(out, token)
	}
	return out
}

func commandKind(verb string) IntentKind {
	switch verb {
	case "help":
		return Help
	case "status":
		return Query
	case "select", "pause", "resume", "auto", "abandon":
		return Control
	default:
		return Command
	}
}

type resolvedArgs struct {
	args   []string
	target int
	amount *Amount
}

func targetLimit(ctx ParseContext, kind TargetKind) int {
	switch kind {
	case TargetCell:
		return ctx.Cells
	case TargetValve:
		return ctx.Valves
	case TargetCircuit:
		return ctx.Circuits
	default:
		return 0
	}
}

// resolveArgs reads the target index first, then the verb-specific operand.
func resolveArgs(ctx ParseContext, def CommandDef, args []string) (resolvedArgs, *ClarifyQuestion, float64) {
	out := resolvedArgs{}
	score := 0.9
	rest := args

	if def.Target != TargetNone {
		if len(rest) > 0 {
			token := rest[0]
			switch {
			case isPronoun(token):
				if def.Target != TargetCell || ctx.Selected < 1 {
					return out, &ClarifyQuestion{Prompt: "What does that refer to? Select a cell first."}, 0.4
				}
				out.target = ctx.Selected
				score -= 0.05
				rest = rest[1:]
			default:
				if n, ok := parseIndex(token); ok {
					out.target = n
					rest = rest[1:]
				}
			}
		}
		if out.target == 0 && def.Target == TargetCell && ctx.Selected > 0 && def.MinArgs == 0 {
			out.target = ctx.Selected
			score -= 0.05
		}
		if out.target == 0 {
			return out, &ClarifyQuestion{Prompt: fmt.Sprintf("Which %s?", def.Target)}, 0.4
		}
		if limit := targetLimit(ctx, def.Target); limit > 0 && out.target > limit {
			return out, &ClarifyQuestion{Prompt: fmt.Sprintf("There is no %s %d (1-%d).", def.Target, out.target, limit)}, 0.4
		}
		out.args = append(out.args, strconv.Itoa(out.target))
	}

	switch def.Canonical {
	case "rod":
		if len(rest) == 0 {
			return out, &ClarifyQuestion{
				Prompt: "Move the rod up or down?",
				Options: []Intent{
					{Kind: Command, Verb: "rod", Target: out.target, Args: []string{strconv.Itoa(out.target), "up"}, Confidence: 0.8},
					{Kind: Command, Verb: "rod", Target: out.target, Args: []string{strconv.Itoa(out.target), "down"}, Confidence: 0.79},
				},
			}, 0.45
		}
		if amount := parseAmountToken(rest[0], false); amount != nil {
			out.amount = amount
			out.args = append(out.args, amount.Raw)
			break
		}
		dir, confidence, ok := resolveWord(rest[0], mapRodDirection, []string{"up", "down", "in", "out"})
		if !ok {
			return out, &ClarifyQuestion{Prompt: fmt.Sprintf("I don't know how to move a rod %q.", rest[0])}, 0.4
		}
		out.args = append(out.args, dir)
		score = minScore(score, confidence)
	case "raise", "lower", "pump":
		if len(rest) == 0 {
			break
		}
		amount := parseAmountToken(rest[0], true)
		if amount == nil {
			return out, &ClarifyQuestion{Prompt: fmt.Sprintf("%q is not an amount. Use 0.2 or 20%%.", rest[0])}, 0.4
		}
		out.amount = amount
		out.args = append(out.args, amount.Raw)
	case "valve":
		state := "toggle"
		if len(rest) > 0 {
			word, confidence, ok := resolveWord(rest[0], mapValveState, []string{"open", "close", "shut", "toggle"})
			if !ok {
				return out, &ClarifyQuestion{Prompt: "Open, close or toggle the valve?"}, 0.45
			}
			state = word
			score = minScore(score, confidence)
		}
		out.args = append(out.args, state)
	case "auto":
		state := "toggle"
		if len(rest) > 0 {
			word, confidence, ok := resolveWord(rest[0], mapSwitch, []string{"on", "off", "toggle"})
			if !ok {
				return out, &ClarifyQuestion{Prompt: "Turn the autopilot on or off?"}, 0.45
			}
			state = word
			score = minScore(score, confidence)
		}
		out.args = append(out.args, state)
	}
	return out, nil, clampScore(score)
}

// resolveWord maps an operand word through an exact table first and falls
// back to fuzzy matching against the known words.
func resolveWord(token string, mapper func(string) string, known []string) (string, float64, bool) {
	if mapped := mapper(token); mapped != "" {
		return mapped, 0.98, true
	}
	matches, confidence, tie := bestMatches(normaliseInput(token), known)
	if len(matches) == 0 || tie {
		return "", 0, false
	}
	mapped := mapper(matches[0])
	if mapped == "" {
		return "", 0, false
	}
	return mapped, confidence, true
}

func bestMatches(token string, all []string) ([]string, float64, bool) {
	if len(all) == 0 || token == "" {
		return nil, 0, false
	}
	type scored struct {
		val   string
		score float64
	}

	results := make([]scored, 0, len(all))
	for _, cand := range all {
		score := 0.0
		switch {
		case token == cand:
			score = 1.0
		case strings.HasPrefix(cand, token) && len(token) >= 2:
			score = 0.9
		default:
			dist := levenshtein.ComputeDistance(token, cand)
			if dist > levenshteinLimit(len(cand)) {
				continue
			}
			score = 0.72 - (0.08 * float64(dist))
		}
		results = append(results, scored{val: cand, score: clampScore(score)})
	}
	if len(results) == 0 {
		return nil, 0, false
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].val < results[j].val
		}
		return results[i].score > results[j].score
	})

	best := results[0]
	tie := len(results) > 1 && (best.score-results[1].score) < 0.05 && results[1].score > 0.6
	if tie {
		return []string{best.val, results[1].val}, best.score, true
	}
	return []string{best.val}, best.score, false
}

func inferFreeTextIntent(ctx ParseContext, raw string, normalised string) *Intent {
	n := normalised
	makeIntent := func(kind IntentKind, verb string, args []string, confidence float64) *Intent {
		return &Intent{
			Raw:        raw,
			Normalised: normalised,
			Kind:       kind,
			Verb:       verb,
			Args:       args,
			Confidence: clampScore(confidence),
		}
	}

	if containsAnyPhrase(n, "emergency", "meltdown", "its going to blow", "it s going to blow", "kill the reaction", "stop the reaction") {
		return makeIntent(Command, "scram", nil, 0.86)
	}
	if containsAnyPhrase(n, "how hot", "what is the pressure", "whats the pressure", "what s the pressure", "how much power", "give me a report") {
		return makeIntent(Query, "status", nil, 0.88)
	}
	if containsAnyPhrase(n, "too hot", "cool it down", "cool down", "calm it down") && ctx.Selected > 0 {
		intent := makeIntent(Command, "lower", []string{strconv.Itoa(ctx.Selected)}, 0.74)
		intent.Target = ctx.Selected
		return intent
	}
	if containsAnyPhrase(n, "more power", "need more power", "heat it up", "speed it up") && ctx.Selected > 0 {
		intent := makeIntent(Command, "raise", []string{strconv.Itoa(ctx.Selected)}, 0.74)
		intent.Target = ctx.Selected
		return intent
	}
	if containsAnyPhrase(n, "take over", "fly it for me", "run it for me") {
		return makeIntent(Control, "auto", []string{"on"}, 0.8)
	}
	if containsAnyPhrase(n, "i give up", "im done", "i m done", "leave the plant") {
		return makeIntent(Control, "abandon", nil, 0.82)
	}
	if containsWord(n, "help") {
		return makeIntent(Help, "help", nil, 0.8)
	}
	return nil
}

func containsAnyPhrase(value string, phrases ...string) bool {
	for _, phrase := range phrases {
		if containsPhrase(value, phrase) {
			return true
		}
	}
	return false
}

func containsPhrase(value, phrase string) bool {
	p := normaliseInput(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+value+" ", " "+p+" ")
}

func containsWord(value, word string) bool {
	w := normaliseInput(word)
	if w == "" {
		return false
	}
	return strings.Contains(" "+value+" ", " "+w+" ")
}

func minScore(a, b float64) float64 {
	if b < a {
		return b
	}
	return a
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func IntentToCommandString(intent Intent) string {
	verb := normaliseInput(intent.Verb)
	if verb == "" {
		return ""
	}
	args := make([]string, 0, len(intent.Args))
	for _, arg := range intent.Args {
		n := normaliseInput(arg)
		if n != "" {
			args = append(args, n)
		}
	}
	if len(args) == 0 {
		return verb
	}
	return verb + " " + strings.Join(args, " ")
}
