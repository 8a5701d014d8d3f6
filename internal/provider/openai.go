package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
)

const (
	// defaultMaxReplyChars caps an utterance so a rambling model cannot
	// flood the ledger.
	defaultMaxReplyChars = 400

	// thoughtPrefix and sayPrefix are the reply convention the prompt asks
	// for. A reply without the markers is used verbatim as the utterance.
	thoughtPrefix = "THOUGHT:"
	sayPrefix     = "SAY:"
	targetPrefix  = "TARGET:"
)

// OpenAIConfig configures an OpenAI-compatible chat-completions provider.
type OpenAIConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string
	// BaseURL overrides the API endpoint; empty uses the OpenAI default.
	// Any chat-completions-compatible server works.
	BaseURL string
	// Model is the model name requested for this decider.
	Model string
	// Temperature is passed through to the API when positive.
	Temperature float64
	// MaxReplyChars truncates utterances; zero uses defaultMaxReplyChars.
	MaxReplyChars int
}

// OpenAI is a Decider backed by an OpenAI-compatible chat-completions API.
// It renders the participant's snapshot and ledger view into a prompt and
// parses the model's reply into an utterance, vote, or action. The client
// is safe for concurrent use.
type OpenAI struct {
	client   openai.Client
	model    string
	temp     float64
	maxReply int
}

// NewOpenAI creates an OpenAI decider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai provider: model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxReply := cfg.MaxReplyChars
	if maxReply <= 0 {
		maxReply = defaultMaxReplyChars
	}

	return &OpenAI{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		temp:     cfg.Temperature,
		maxReply: maxReply,
	}, nil
}

// Utterance asks the model for a discussion message.
func (o *OpenAI) Utterance(ctx context.Context, req Request) (Utterance, error) {
	instruction := "Speak to the group now. Reply with two lines:\n" +
		thoughtPrefix + " your private reasoning (one sentence)\n" +
		sayPrefix + " what you say out loud (at most two sentences)"
	if req.Phase == game.PhaseNightAction {
		instruction = "You are speaking privately with your mafia teammates. " +
			"Coordinate tonight's target. Reply with two lines:\n" +
			thoughtPrefix + " your private reasoning (one sentence)\n" +
			sayPrefix + " what you tell your teammates (at most two sentences)"
	}

	text, err := o.complete(ctx, req, instruction)
	if err != nil {
		return Utterance{}, err
	}

	thought, say := splitReply(text)
	if say == "" {
		say = strings.TrimSpace(text)
	}
	return Utterance{Content: truncate(say, o.maxReply), InnerThought: thought}, nil
}

// Vote asks the model to pick an elimination target.
func (o *OpenAI) Vote(ctx context.Context, req Request) (VoteReply, error) {
	instruction := fmt.Sprintf(
		"Vote to eliminate one player. Eligible targets: %s. "+
			"You may also reply %q. Reply with two lines:\n"+
			thoughtPrefix+" your private reasoning (one sentence)\n"+
			targetPrefix+" the chosen player id",
		strings.Join(req.Candidates, ", "), game.AbstainTarget)

	text, err := o.complete(ctx, req, instruction)
	if err != nil {
		return VoteReply{}, err
	}

	thought, _ := splitReply(text)
	return VoteReply{
		Target:       pickTarget(text, req.Candidates),
		InnerThought: thought,
	}, nil
}

// NightAction asks the model to pick the role's night target.
func (o *OpenAI) NightAction(ctx context.Context, req Request) (ActionReply, error) {
	kind, ok := roleAction(req.Participant.Role)
	if !ok || len(req.Candidates) == 0 {
		return ActionReply{}, nil
	}

	verb := map[game.ActionKind]string{
		game.ActionKill:        "eliminate",
		game.ActionOverride:    "eliminate (your choice overrides your team's)",
		game.ActionProtect:     "protect",
		game.ActionInvestigate: "investigate",
	}[kind]

	instruction := fmt.Sprintf(
		"Choose one player to %s tonight. Eligible targets: %s. Reply with two lines:\n"+
			thoughtPrefix+" your private reasoning (one sentence)\n"+
			targetPrefix+" the chosen player id",
		verb, strings.Join(req.Candidates, ", "))

	text, err := o.complete(ctx, req, instruction)
	if err != nil {
		return ActionReply{}, err
	}

	target := pickTarget(text, req.Candidates)
	if target == game.AbstainTarget {
		// A night role that names no target simply acts on no one.
		return ActionReply{}, nil
	}
	thought, _ := splitReply(text)
	return ActionReply{Kind: kind, Target: target, InnerThought: thought}, nil
}

// complete issues one chat-completions call with the rendered context.
func (o *OpenAI) complete(ctx context.Context, req Request, instruction string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(renderContext(req) + "\n\n" + instruction),
		},
	}
	if o.temp > 0 {
		params.Temperature = openai.Float(o.temp)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai provider: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai provider: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// systemPrompt frames the game and the participant's hidden role.
func systemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a player in a game of Mafia. ", req.Participant.Name)
	fmt.Fprintf(&b, "Your hidden role is %s (%s team). ", req.Participant.Role, req.Participant.Role.Team())
	b.WriteString("Never reveal your role directly. Play to win for your team. ")
	b.WriteString("Stay in character and keep replies short.")
	return b.String()
}

// renderContext flattens the snapshot and the participant's ledger view
// into the prompt body.
func renderContext(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d, phase %s.\n\nPlayers:\n", req.Round, req.Phase)
	for _, p := range req.Snapshot.Players {
		fmt.Fprintf(&b, "- %s (%s): %s", p.Name, p.ID, p.Status)
		if p.Role != "" {
			fmt.Fprintf(&b, " [%s]", p.Role)
		}
		b.WriteString("\n")
	}

	if len(req.View) > 0 {
		b.WriteString("\nWhat you have seen so far:\n")
		for _, e := range req.View {
			b.WriteString(renderEntry(e))
		}
	}
	return b.String()
}

// renderEntry formats one ledger entry as a prompt line.
func renderEntry(e ledger.Entry) string {
	switch e.Type {
	case ledger.EntryMessage:
		scope := ""
		if e.Visibility.Scope == ledger.ScopeTeam {
			scope = " (team only)"
		}
		return fmt.Sprintf("[r%d %s] %s says%s: %s\n", e.Round, e.Phase, e.Actor, scope, e.Content)
	case ledger.EntryVote:
		return fmt.Sprintf("[r%d %s] %s voted for %s\n", e.Round, e.Phase, e.Actor, e.Target)
	case ledger.EntryAction:
		return fmt.Sprintf("[r%d %s] %s chose %s on %s\n", e.Round, e.Phase, e.Actor, e.Kind, e.Target)
	case ledger.EntryEvent:
		return fmt.Sprintf("[r%d %s] %s\n", e.Round, e.Phase, e.Content)
	default:
		// Inner thoughts are the participant's own; replay them as memory.
		return fmt.Sprintf("[r%d %s] (your thought) %s\n", e.Round, e.Phase, e.Content)
	}
}

// splitReply extracts the THOUGHT and SAY lines from a structured reply.
func splitReply(text string) (thought, say string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, thoughtPrefix); ok {
			thought = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, sayPrefix); ok {
			say = strings.TrimSpace(rest)
		}
	}
	return thought, say
}

// pickTarget finds the chosen candidate id in a model reply. It prefers an
// explicit TARGET line, then falls back to the first candidate id mentioned
// anywhere, then to abstain. Lenient parsing keeps a slightly off-format
// reply from being wasted; the engine still validates the result.
func pickTarget(text string, candidates []string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, targetPrefix)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		for _, c := range candidates {
			if strings.Contains(rest, c) {
				return c
			}
		}
		if strings.Contains(strings.ToLower(rest), game.AbstainTarget) {
			return game.AbstainTarget
		}
	}

	for _, c := range candidates {
		if strings.Contains(text, c) {
			return c
		}
	}
	return game.AbstainTarget
}

// truncate caps a string at n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
