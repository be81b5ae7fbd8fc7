package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Oscar8918/agente-maf/internal/erp"
	"github.com/Oscar8918/agente-maf/internal/llm"
	"github.com/Oscar8918/agente-maf/internal/session"
	"github.com/Oscar8918/agente-maf/internal/store"
	"github.com/Oscar8918/agente-maf/internal/telemetry"
)

const erpSubAgentName = "erp_assistant"

// streamFragmentSize bounds each fragment RunStream emits.
const streamFragmentSize = 512

// Archive is the durable side of conversation state. *store.Store satisfies
// it; a nil Archive runs the gateway memory-only.
type Archive interface {
	UpsertConversation(ctx context.Context, threadID, userID string) error
	AppendMessage(ctx context.Context, threadID, role, content string) error
	RecentMessages(ctx context.Context, threadID string, limit int) ([]store.MessageRecord, error)
	DeleteConversation(ctx context.Context, threadID string) (bool, error)
	AppendAgentRun(ctx context.Context, rec store.AgentRunRecord) error
}

// Gateway owns the two agents and routes conversational turns: the main
// agent handles chit-chat and utilities and delegates all ERP work to the
// specialized sub-agent, which runs the ERP tool surface on its own
// sub-thread of the conversation.
type Gateway struct {
	sessions      *session.Manager
	archive       Archive
	main          *Agent
	erp           *Agent
	historyWindow int
	digestCap     int
	logger        *log.Logger
}

// GatewayOptions tunes turn orchestration. Zero values use the defaults the
// backend was operated with.
type GatewayOptions struct {
	MaxRounds     int
	HistoryWindow int
	DigestCap     int
	Logger        *log.Logger
}

func NewGateway(provider llm.Provider, toolset *ERPToolset, sessions *session.Manager, archive Archive, opts GatewayOptions) *Gateway {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	if opts.DigestCap <= 0 {
		opts.DigestCap = 500
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	g := &Gateway{
		sessions:      sessions,
		archive:       archive,
		historyWindow: opts.HistoryWindow,
		digestCap:     opts.DigestCap,
		logger:        opts.Logger,
	}
	g.erp = NewAgent(erpSubAgentName, erpAgentInstructions, provider, toolset.Tools(), opts.MaxRounds, opts.Logger)
	g.main = NewAgent("asistente_maf", mainAgentInstructions, provider, []Tool{
		&currentTimeTool{},
		&delegateTool{g: g},
	}, opts.MaxRounds, opts.Logger)
	return g
}

// RunTurn executes one conversational turn. threadID may be empty to start
// a new conversation; the effective thread id is always returned so the
// caller can hand it back to the client.
func (g *Gateway) RunTurn(ctx context.Context, threadID, userID, message string) (string, string, error) {
	started := time.Now()

	thread, created := g.sessions.Ensure(threadID)
	thread.LockTurn()
	defer thread.UnlockTurn()

	if created && threadID != "" {
		g.rehydrate(ctx, thread)
	}
	if g.archive != nil {
		if err := g.archive.UpsertConversation(ctx, thread.ID(), userID); err != nil {
			g.logger.Printf("conversation upsert failed for %s: %v", thread.ID(), err)
		}
	}

	tc := TurnContext{ThreadID: thread.ID(), UserID: userID, Thread: thread}
	res, err := g.main.Run(ctx, tc, thread, message)

	outcome := "success"
	errText := ""
	if err != nil {
		outcome = "error"
		errText = err.Error()
	}
	telemetry.AgentRuns.WithLabelValues(g.main.Name(), outcome).Inc()
	telemetry.TurnDuration.WithLabelValues(g.main.Name()).Observe(time.Since(started).Seconds())
	g.recordRun(store.AgentRunRecord{
		ThreadID:      thread.ID(),
		UserID:        userID,
		Agent:         g.main.Name(),
		PromptChars:   len(message),
		ResponseChars: len(res.Text),
		ToolCalls:     res.ToolCalls,
		Success:       err == nil,
		DurationMs:    time.Since(started).Milliseconds(),
		ErrorText:     errText,
	})
	if err != nil {
		return "", thread.ID(), err
	}

	g.persistExchange(ctx, thread.ID(), message, res.Text)
	return res.Text, thread.ID(), nil
}

// RunStream runs one turn and delivers the answer as a finite sequence of
// text fragments. The channel is closed once the full answer has been sent.
func (g *Gateway) RunStream(ctx context.Context, threadID, userID, message string) (<-chan string, string, error) {
	text, tid, err := g.RunTurn(ctx, threadID, userID, message)
	if err != nil {
		return nil, tid, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		runes := []rune(text)
		for start := 0; start < len(runes); start += streamFragmentSize {
			end := start + streamFragmentSize
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case ch <- string(runes[start:end]):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, tid, nil
}

// DeleteThread removes the conversation everywhere: in-memory handle,
// sub-agent handles (dropped with the thread) and durable rows. Not-found
// is reported only when neither side held the thread.
func (g *Gateway) DeleteThread(ctx context.Context, threadID string) (bool, error) {
	inMemory := g.sessions.Delete(threadID)
	durable := false
	if g.archive != nil {
		d, err := g.archive.DeleteConversation(ctx, threadID)
		if err != nil {
			return inMemory, fmt.Errorf("durable delete of %s: %w", threadID, err)
		}
		durable = d
	}
	return inMemory || durable, nil
}

// rehydrate installs a bounded digest of the durable history as a synthetic
// leading exchange. The digest content is for the model only and is never
// shown to the user.
func (g *Gateway) rehydrate(ctx context.Context, thread *session.Thread) {
	if g.archive == nil {
		return
	}
	msgs, err := g.archive.RecentMessages(ctx, thread.ID(), g.historyWindow)
	if err != nil {
		g.logger.Printf("rehydration fetch failed for %s: %v", thread.ID(), err)
		return
	}
	if len(msgs) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("Resumen de la conversación previa con este usuario. Úsalo como contexto; no lo menciones ni lo repitas:\n")
	for _, m := range msgs {
		content := m.Content
		if runes := []rune(content); len(runes) > g.digestCap {
			content = string(runes[:g.digestCap]) + "..."
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", m.Role, content))
	}

	thread.SetHistory([]llm.Message{
		{Role: llm.RoleUser, Content: b.String()},
		{Role: llm.RoleAssistant, Content: "Entendido, continúo la conversación con ese contexto."},
	})
	g.logger.Printf("rehydrated thread %s with %d durable messages", thread.ID(), len(msgs))
}

func (g *Gateway) persistExchange(ctx context.Context, threadID, userMsg, assistantMsg string) {
	if g.archive == nil {
		return
	}
	if err := g.archive.AppendMessage(ctx, threadID, llm.RoleUser, userMsg); err != nil {
		g.logger.Printf("persist user message for %s failed: %v", threadID, err)
	}
	if err := g.archive.AppendMessage(ctx, threadID, llm.RoleAssistant, assistantMsg); err != nil {
		g.logger.Printf("persist assistant message for %s failed: %v", threadID, err)
	}
}

// recordRun writes the run audit row without blocking the turn.
func (g *Gateway) recordRun(rec store.AgentRunRecord) {
	if g.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.archive.AppendAgentRun(ctx, rec); err != nil {
			g.logger.Printf("agent run audit for %s failed: %v", rec.ThreadID, err)
		}
	}()
}

// currentTimeTool reports the wall clock, the one non-ERP utility the main
// agent keeps.
type currentTimeTool struct{}

func (t *currentTimeTool) Spec() llm.ToolDef {
	return llm.ToolDef{
		Name:        "current_time",
		Description: "Obtiene la fecha y hora actual.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

func (t *currentTimeTool) Invoke(ctx context.Context, tc TurnContext, args string) string {
	return fmt.Sprintf("La fecha y hora actual es: %s", time.Now().Format("02/01/2006 15:04:05"))
}

// delegateTool hands a natural-language query to the ERP sub-agent, running
// on the conversation's dedicated sub-thread so ERP context carries across
// delegations within the same conversation.
type delegateTool struct {
	g *Gateway
}

func (t *delegateTool) Spec() llm.ToolDef {
	return llm.ToolDef{
		Name:        erpSubAgentName,
		Description: "Delegado especializado en el ERP Siigo Nube. Envíale la consulta completa del usuario relacionada con el ERP y devuelve su respuesta.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"Consulta completa para el asistente ERP."}},"required":["query"]}`),
	}
}

func (t *delegateTool) Invoke(ctx context.Context, tc TurnContext, args string) string {
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil || strings.TrimSpace(parsed.Query) == "" {
		return errorText(erp.KindInput, "query is required")
	}

	started := time.Now()
	sub := tc.Thread.Sub("erp")
	res, err := t.g.erp.Run(ctx, tc, sub, parsed.Query)

	outcome := "success"
	errText := ""
	if err != nil {
		outcome = "error"
		errText = err.Error()
	}
	telemetry.AgentRuns.WithLabelValues(erpSubAgentName, outcome).Inc()
	t.g.recordRun(store.AgentRunRecord{
		ThreadID:      tc.ThreadID,
		UserID:        tc.UserID,
		Agent:         erpSubAgentName,
		PromptChars:   len(parsed.Query),
		ResponseChars: len(res.Text),
		ToolCalls:     res.ToolCalls,
		Success:       err == nil,
		DurationMs:    time.Since(started).Milliseconds(),
		ErrorText:     errText,
	})
	if err != nil {
		return errorText(erp.KindBackend, fmt.Sprintf("el asistente ERP no pudo completar la consulta: %v", err))
	}
	return res.Text
}
