package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/YoungY620/codeflow/internal"

	agent "github.com/MoonshotAI/kimi-agent-sdk/go"
	"github.com/MoonshotAI/kimi-agent-sdk/go/wire"
)

// KimiConfig holds the kimi agent settings. Empty APIKey/Model use the
// kimi CLI's own configuration.
type KimiConfig struct {
	APIKey  string
	Model   string
	WorkDir string
}

// Kimi answers prompts through a fresh kimi agent session per call.
type Kimi struct {
	cfg KimiConfig
}

func NewKimi(cfg KimiConfig) *Kimi {
	return &Kimi{cfg: cfg}
}

func (k *Kimi) newSession() (*agent.Session, error) {
	workDir := k.cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if k.cfg.APIKey != "" && k.cfg.Model != "" {
		internal.LogDebug("Using configured model: %s", k.cfg.Model)
		return agent.NewSession(
			agent.WithAPIKey(k.cfg.APIKey),
			agent.WithModel(k.cfg.Model),
			agent.WithWorkDir(workDir),
		)
	}
	internal.LogDebug("Using kimi default configuration")
	return agent.NewSession(
		agent.WithWorkDir(workDir),
	)
}

// Ask sends prompt as a single turn and returns the concatenated text parts.
func (k *Kimi) Ask(ctx context.Context, prompt string) (string, error) {
	session, err := k.newSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	turn, err := session.Prompt(ctx, wire.NewStringContent(prompt))
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	var out strings.Builder
	for step := range turn.Steps {
		drainStep(step.Messages, &out)
	}

	if err := turn.Err(); err != nil {
		return "", fmt.Errorf("turn error: %w", err)
	}
	return out.String(), nil
}

// drainStep appends the text parts of one step to out and rejects every
// tool approval request. The oracle only answers in prose; source under
// analysis must not be able to trigger tool execution.
func drainStep(msgs <-chan wire.Message, out *strings.Builder) {
	lb := internal.NewLineBuffer(500 * time.Millisecond)
	for msg := range msgs {
		switch m := msg.(type) {
		case wire.ApprovalRequest:
			internal.LogNotice("Rejected tool request from oracle: %s %s", m.Action, m.Description)
			if err := m.Respond(wire.ApprovalRequestResponseReject); err != nil {
				internal.LogError("Failed to reject tool request %s: %v", m.ID, err)
			}
		case wire.ContentPart:
			if m.Type == wire.ContentPartTypeText && m.Text.Valid {
				out.WriteString(m.Text.Value)
				lb.Write(m.Text.Value)
				if lines := lb.Flush(false); lines != "" {
					internal.LogDebug("Oracle output: %s", lines)
				}
			}
		}
	}
	if lines := lb.Flush(true); lines != "" {
		internal.LogDebug("Oracle output: %s", lines)
	}
}
