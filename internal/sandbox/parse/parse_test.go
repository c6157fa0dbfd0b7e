package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasShellOperatorsDetectsPipeAndChaining(t *testing.T) {
	assert.True(t, HasShellOperators("cat a.txt | grep foo"))
	assert.True(t, HasShellOperators("make build && make test"))
	assert.True(t, HasShellOperators("rm -rf /tmp/x; echo done"))
	assert.False(t, HasShellOperators("ls -la /tmp"))
}

func TestHasShellOperatorsIgnoresQuotedOperators(t *testing.T) {
	assert.False(t, HasShellOperators(`echo "a | b"`))
	assert.False(t, HasShellOperators(`echo 'x && y'`))
}

func TestTokenizeStripsQuotes(t *testing.T) {
	assert.Equal(t, []string{"echo", "hello world"}, Tokenize(`echo "hello world"`))
}

func TestSplitPipelineSeparatesStages(t *testing.T) {
	stages := SplitPipeline("cat f.txt | grep foo | wc -l")
	assert.Equal(t, [][]string{{"cat", "f.txt"}, {"grep", "foo"}, {"wc", "-l"}}, stages)
}

func TestSplitPipelineSeparatesOnAllTopLevelOperators(t *testing.T) {
	stages := SplitPipeline("ls && sudo rm -rf /")
	assert.Equal(t, [][]string{{"ls"}, {"sudo", "rm", "-rf", "/"}}, stages)

	stages = SplitPipeline("grep TODO src/*.rs | wc -l && cargo build")
	assert.Equal(t, [][]string{{"grep", "TODO", "src/*.rs"}, {"wc", "-l"}, {"cargo", "build"}}, stages)

	stages = SplitPipeline("rm -rf /tmp/x; echo done")
	assert.Equal(t, [][]string{{"rm", "-rf", "/tmp/x"}, {"echo", "done"}}, stages)
}

func TestSplitPipelineDropsLeadingEnvAssignments(t *testing.T) {
	stages := SplitPipeline("FOO=bar BAZ=qux git log")
	assert.Equal(t, [][]string{{"git", "log"}}, stages)
}

func TestSplitPipelineStripsLeadingAbsolutePath(t *testing.T) {
	stages := SplitPipeline("/usr/bin/git log --oneline")
	assert.Equal(t, [][]string{{"git", "log", "--oneline"}}, stages)
}

func TestExtractCommandsReturnsOneProgramPerStage(t *testing.T) {
	assert.Equal(t, []string{"cat", "grep", "wc"}, ExtractCommands("cat f | grep x | wc -l"))
}

func TestExtractCommandsSplitsOnChainingOperators(t *testing.T) {
	// Scenario 2: a mixed pipe/chain line surfaces every stage, including
	// the one after &&, with subcommands hyphenated.
	assert.Equal(t, []string{"grep", "wc", "cargo-build"},
		ExtractCommands("grep TODO src/*.rs | wc -l && cargo build"))
}

func TestExtractCommandsSurfacesRestrictedStageAfterChain(t *testing.T) {
	// Scenario 3: sudo must surface as its own command even though it
	// only appears after &&, so it can be classified Restricted.
	assert.Equal(t, []string{"ls", "sudo"}, ExtractCommands("ls && sudo rm -rf /"))
}

func TestExtractFirstCommandResolvesSubcommand(t *testing.T) {
	assert.Equal(t, "git-push", ExtractFirstCommand("git push origin main"))
	assert.Equal(t, "git-log", ExtractFirstCommand("git --no-pager log -1"))
	assert.Equal(t, "ls", ExtractFirstCommand("ls -la"))
}

func TestExtractFirstCommandScenarioOne(t *testing.T) {
	// Scenario 1 from the spec: "git log --oneline -10" -> ["git-log"].
	assert.Equal(t, []string{"git-log"}, ExtractCommands("git log --oneline -10"))
}
