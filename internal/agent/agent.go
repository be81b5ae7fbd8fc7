package agent

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Oscar8918/agente-maf/internal/llm"
	"github.com/Oscar8918/agente-maf/internal/session"
)

// TurnContext carries per-turn correlation state down to tools. It exists
// for exactly one turn; tools must not retain it.
type TurnContext struct {
	ThreadID string
	UserID   string
	Thread   *session.Thread
}

// Tool is one callable function advertised to the model. Invoke never
// returns an error: every failure is rendered as structured text so the
// model can read it and recover.
type Tool interface {
	Spec() llm.ToolDef
	Invoke(ctx context.Context, tc TurnContext, args string) string
}

// RunResult is the outcome of one completed agent turn.
type RunResult struct {
	Text      string
	ToolCalls int
	Rounds    int
}

// Agent drives the function-calling loop for one model persona: submit the
// transcript plus tool schemas, execute whatever tools the model requests,
// feed results back, repeat until the model answers in plain text or the
// round ceiling is hit.
type Agent struct {
	name         string
	instructions string
	provider     llm.Provider
	tools        []Tool
	maxRounds    int
	logger       *log.Logger
}

func NewAgent(name, instructions string, provider llm.Provider, tools []Tool, maxRounds int, logger *log.Logger) *Agent {
	if maxRounds <= 0 {
		maxRounds = 8
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Agent{
		name:         name,
		instructions: instructions,
		provider:     provider,
		tools:        tools,
		maxRounds:    maxRounds,
		logger:       logger,
	}
}

func (a *Agent) Name() string { return a.name }

func (a *Agent) specs() []llm.ToolDef {
	out := make([]llm.ToolDef, 0, len(a.tools))
	for _, t := range a.tools {
		out = append(out, t.Spec())
	}
	return out
}

func (a *Agent) toolByName(name string) Tool {
	for _, t := range a.tools {
		if t.Spec().Name == name {
			return t
		}
	}
	return nil
}

// Run executes one turn on the given thread. The thread history is only
// committed once the turn completes, so a failed turn leaves the transcript
// untouched.
func (a *Agent) Run(ctx context.Context, tc TurnContext, thread *session.Thread, input string) (RunResult, error) {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: a.instructions}}
	messages = append(messages, thread.History()...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	var res RunResult
	for round := 0; round < a.maxRounds; round++ {
		res.Rounds = round + 1

		comp, err := a.provider.Complete(ctx, messages, a.specs())
		if err != nil {
			return res, fmt.Errorf("completion failed on round %d: %w", round+1, err)
		}
		messages = append(messages, comp.Message)

		if len(comp.Message.ToolCalls) == 0 {
			res.Text = comp.Message.Content
			thread.SetHistory(messages[1:])
			return res, nil
		}

		for _, call := range comp.Message.ToolCalls {
			res.ToolCalls++
			tool := a.toolByName(call.Function.Name)
			var output string
			if tool == nil {
				output = fmt.Sprintf(`{"error": {"kind": "unsupported", "message": "unknown tool %q"}}`, call.Function.Name)
				a.logger.Printf("%s requested unknown tool %q", a.name, call.Function.Name)
			} else {
				output = tool.Invoke(ctx, tc, call.Function.Arguments)
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	return res, fmt.Errorf("turn exceeded %d tool rounds without a final answer", a.maxRounds)
}
