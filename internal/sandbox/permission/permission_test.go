package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTierClassifiesKnownCommands(t *testing.T) {
	assert.Equal(t, TierSession, DefaultTier("git-status"))
	assert.Equal(t, TierPerCall, DefaultTier("git-push"))
	assert.Equal(t, TierRestricted, DefaultTier("sudo"))
}

func TestDefaultTierDefaultsUnknownCommandToPerCall(t *testing.T) {
	assert.Equal(t, TierPerCall, DefaultTier("some-unknown-tool"))
}

func TestStoreCheckTierAppliesConfigOverrideBeforeDefault(t *testing.T) {
	s := NewStore(ConfigOverrides{Session: []string{"sudo"}})
	assert.Equal(t, TierSession, s.CheckTier("sudo"))
}

func TestPromoteToSessionUpgradesFutureChecks(t *testing.T) {
	s := NewStore(ConfigOverrides{})
	require.Equal(t, TierPerCall, s.CheckTier("git-push"))
	s.PromoteToSession("git-push")
	assert.Equal(t, TierSession, s.CheckTier("git-push"))
}

func TestCheckPipelineReturnsMostRestrictiveStage(t *testing.T) {
	s := NewStore(ConfigOverrides{})
	tier, cmd := s.CheckPipeline("git log | sudo tee /etc/passwd")
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, "sudo", cmd)
}

func TestCheckPipelineAllSessionStaysSession(t *testing.T) {
	s := NewStore(ConfigOverrides{})
	tier, _ := s.CheckPipeline("cat f.txt | grep foo")
	assert.Equal(t, TierSession, tier)
}

// Scenario 3: sudo after && must be seen and refused, not lost in a
// single unsplit "ls && sudo rm -rf /" stage.
func TestCheckPipelineCatchesRestrictedCommandAfterChainOperator(t *testing.T) {
	s := NewStore(ConfigOverrides{})
	tier, cmd := s.CheckPipeline("ls && sudo rm -rf /")
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, "sudo", cmd)
}

// Scenario 2: a pipe followed by && must surface the chained command's
// tier, not just the first pipeline stage's.
func TestCheckPipelineCatchesPerCallCommandAfterChainOperator(t *testing.T) {
	s := NewStore(ConfigOverrides{})
	tier, cmd := s.CheckPipeline("grep TODO src/*.rs | wc -l && cargo build")
	assert.Equal(t, TierPerCall, tier)
	assert.Equal(t, "cargo-build", cmd)
}

func TestApprovalChannelRoundTrip(t *testing.T) {
	ch := NewApprovalChannel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		req := <-ch.Requests
		req.RespondTo <- ApprovalResponse{Approved: true, PromoteSession: true}
	}()

	resp, err := ch.Request(ctx, "git push", TierPerCall)
	require.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.True(t, resp.PromoteSession)
}

func TestApprovalChannelCancelledContext(t *testing.T) {
	ch := NewApprovalChannel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.Request(ctx, "rm", TierPerCall)
	assert.Error(t, err)
}
