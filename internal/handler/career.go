package handler

import (
	"context"
	"strings"

	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/intent"
	"github.com/rs/zerolog"
)

const (
	careerActionGroup = "CareerMatchingGroup"
	careerFunction    = "generate_plan"
	careerDefaultGoal = "help me find a job"
	noResponse        = "(No response generated.)"
)

// Career routes a goal to the specialist agent matching its intent. An
// explicit "intent" parameter overrides keyword detection.
type Career struct {
	Agent  Agent
	Agents map[intent.Intent]bedrock.AgentRef
	Logger zerolog.Logger
}

func (h *Career) Handle(ctx context.Context, event ActionEvent) (FunctionResponse, error) {
	params := event.Params()
	input := strings.TrimSpace(firstNonEmpty(event.Goal, event.InputText, stringValue(params["goal"]), event.FirstParamValue(), careerDefaultGoal))
	detected := intent.Detect(input)
	if name := stringValue(params["intent"]); name != "" {
		if explicit, ok := intent.Parse(name); ok {
			detected = explicit
		} else {
			h.Logger.Warn().Str("intent", name).Msg("unknown intent parameter, using detection")
		}
	}
	prompt := intent.Prompt(detected, input)
	h.Logger.Info().Str("intent", string(detected)).Msg("detected intent")

	ref, ok := h.Agents[detected]
	if !ok {
		h.Logger.Error().Str("intent", string(detected)).Msg("no agent configured")
		return textResponse(careerActionGroup, careerFunction, "Error: no agent configured for "+string(detected)), nil
	}

	reply, err := h.Agent.Invoke(ctx, ref, "session-"+string(detected), prompt)
	if err != nil {
		h.Logger.Error().Err(err).Str("intent", string(detected)).Msg("specialist agent failed")
		return textResponse(careerActionGroup, careerFunction, "Error: "+err.Error()), nil
	}
	text := reply.Text
	if text == "" {
		text = noResponse
	}
	return textResponse(careerActionGroup, careerFunction, text), nil
}
