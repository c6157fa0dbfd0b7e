// Package parse tokenizes shell command lines well enough to split
// pipelines, detect shell operators an app-level sandbox can't safely
// honor, and extract the governing subcommand of tools like git or cargo
// that gate entirely different operations behind one argv[0].
package parse

import (
	"regexp"
	"strings"
)

// shellOperators are the operators that require a real shell to interpret
// — an app-level (non-namespaced) executor must refuse any command line
// containing one of these, since it can only exec a single program.
var shellOperators = []string{"|", "&&", "||", ";", ">", ">>", "<", "&"}

// HasShellOperators reports whether line contains any shell operator
// outside of a quoted string.
func HasShellOperators(line string) bool {
	for _, tok := range Tokenize(line) {
		for _, op := range shellOperators {
			if tok == op {
				return true
			}
		}
	}
	return false
}

// Tokenize splits line into shell-like words, respecting single and
// double quotes (quoted content is kept as one token, quotes stripped)
// and treating the multi-character operators as their own tokens even
// when not separated from neighbors by whitespace.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
			continue
		}

		switch {
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case isOperatorStart(runes, i):
			flush()
			op, width := matchOperator(runes, i)
			tokens = append(tokens, op)
			i += width - 1
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isOperatorStart(runes []rune, i int) bool {
	_, width := matchOperator(runes, i)
	return width > 0
}

// matchOperator returns the longest shell operator starting at i, and its
// rune width, preferring two-character operators (&&, ||, >>) over their
// one-character prefixes.
func matchOperator(runes []rune, i int) (string, int) {
	if i+1 < len(runes) {
		two := string(runes[i : i+2])
		switch two {
		case "&&", "||", ">>":
			return two, 2
		}
	}
	switch runes[i] {
	case '|', ';', '>', '<', '&':
		return string(runes[i]), 1
	}
	return "", 0
}

// pipelineOperators are the top-level separators a pipeline is split at
// before classification: a stage boundary is any of |, &&, ||, or ; —
// the distinction between piping and chaining doesn't matter for
// permission purposes, only the effective max tier across stages does.
var pipelineOperators = map[string]bool{"|": true, "&&": true, "||": true, ";": true}

// envAssignment matches a leading "VAR=value" token, the shape of an
// inline environment assignment prefixing a command (e.g. "FOO=bar cmd").
var envAssignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=.*$`)

// normalizeStage drops leading "VAR=value" environment assignments and,
// if the first remaining token is an absolute path, replaces it with its
// base name, so "FOO=bar /usr/bin/git log" classifies identically to
// "git log".
func normalizeStage(stage []string) []string {
	i := 0
	for i < len(stage) && envAssignment.MatchString(stage[i]) {
		i++
	}
	stage = stage[i:]
	if len(stage) > 0 && strings.HasPrefix(stage[0], "/") {
		if idx := strings.LastIndex(stage[0], "/"); idx >= 0 && idx+1 < len(stage[0]) {
			rest := append([]string{stage[0][idx+1:]}, stage[1:]...)
			stage = rest
		}
	}
	return stage
}

// SplitPipeline splits a command line into its stages at every top-level
// |, &&, ||, and ; (honoring quotes via Tokenize), normalizing each stage
// (see normalizeStage) as it's closed off.
func SplitPipeline(line string) [][]string {
	tokens := Tokenize(line)
	var stages [][]string
	var cur []string
	for _, tok := range tokens {
		if pipelineOperators[tok] {
			stages = append(stages, normalizeStage(cur))
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	stages = append(stages, normalizeStage(cur))
	return stages
}

// subcommandTools lists programs whose first non-flag argument selects a
// fundamentally different operation (e.g. "git push" vs. "git log"), so
// permission checks must key on program+subcommand rather than program
// alone.
var subcommandTools = map[string]bool{
	"git": true, "cargo": true, "npm": true, "go": true, "docker": true,
	"kubectl": true, "systemctl": true, "apt": true, "apt-get": true, "pip": true,
}

// commandName returns the governing command name of a single pipeline
// stage: the bare program name, or "program-subcommand" (hyphenated) for
// a subcommand-bearing tool's first non-flag argument, e.g. "git log
// --oneline" -> "git-log".
func commandName(stage []string) string {
	if len(stage) == 0 {
		return ""
	}
	program := stage[0]
	if !subcommandTools[program] {
		return program
	}
	for _, arg := range stage[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return program + "-" + arg
	}
	return program
}

// ExtractCommands returns the governing command name of every stage in a
// pipeline split at |, &&, ||, and ;, e.g. ["grep", "wc", "cargo-build"]
// for "grep TODO src/*.rs | wc -l && cargo build".
func ExtractCommands(line string) []string {
	stages := SplitPipeline(line)
	cmds := make([]string, 0, len(stages))
	for _, stage := range stages {
		if name := commandName(stage); name != "" {
			cmds = append(cmds, name)
		}
	}
	return cmds
}

// ExtractFirstCommand returns the governing command name (see
// commandName) of the first pipeline stage — the unit a single-command
// permission tier decision is made against.
func ExtractFirstCommand(line string) string {
	stages := SplitPipeline(line)
	if len(stages) == 0 {
		return ""
	}
	return commandName(stages[0])
}
