package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	agent "github.com/MoonshotAI/kimi-agent-sdk/go"
	"github.com/MoonshotAI/kimi-agent-sdk/go/wire"
)

func textPart(s string) wire.ContentPart {
	return wire.ContentPart{
		Type: wire.ContentPartTypeText,
		Text: wire.Optional[string]{Value: s, Valid: true},
	}
}

func TestDrainStep_ConcatenatesText(t *testing.T) {
	msgs := make(chan wire.Message, 4)
	msgs <- textPart("> START\n")
	msgs <- wire.ContentPart{Type: wire.ContentPartTypeThink, Think: wire.Optional[string]{Value: "hmm", Valid: true}}
	msgs <- textPart("> main()\n")
	msgs <- wire.ContentPart{Type: wire.ContentPartTypeText}
	close(msgs)

	var out strings.Builder
	drainStep(msgs, &out)

	assert.Equal(t, "> START\n> main()\n", out.String())
}

func TestDrainStep_RejectsToolRequests(t *testing.T) {
	var responses []wire.RequestResponse
	req := wire.ApprovalRequest{
		Responder: agent.ResponderFunc(func(r wire.RequestResponse) error {
			responses = append(responses, r)
			return nil
		}),
		ID:          "req-1",
		Action:      "run shell command",
		Description: "rm -rf /",
	}

	msgs := make(chan wire.Message, 3)
	msgs <- textPart("before ")
	msgs <- req
	msgs <- textPart("after")
	close(msgs)

	var out strings.Builder
	drainStep(msgs, &out)

	assert.Equal(t, []wire.RequestResponse{wire.ApprovalRequestResponseReject}, responses)
	assert.Equal(t, "before after", out.String())
}
