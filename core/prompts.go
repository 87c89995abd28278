package orchestration

import (
	"fmt"
	"strings"
)

// Instruction profiles. Each template frames the assistant for one
// conversational setting; the caller's custom instructions and locale are
// layered on top.
const (
	ProfileInterview    = "interview"
	ProfileSales        = "sales"
	ProfileMeeting      = "meeting"
	ProfilePresentation = "presentation"
	ProfileGeneral      = "general"
)

var profileTemplates = map[string]string{
	ProfileInterview: "You are a live interview assistant. The user is in a job interview; " +
		"give concise, confident answers they can deliver verbatim. Lead with the direct " +
		"answer, then one or two supporting points. Never mention that you are an AI.",
	ProfileSales: "You are a live sales-call assistant. Help the user handle objections, " +
		"answer product questions and move the call forward. Keep suggestions short enough " +
		"to say naturally.",
	ProfileMeeting: "You are a live meeting assistant. Answer questions raised in the " +
		"meeting factually and briefly, and keep track of what has already been discussed.",
	ProfilePresentation: "You are a live presentation assistant. Help the user answer " +
		"audience questions clearly and keep answers tight.",
	ProfileGeneral: "You are a live conversation assistant. Answer the user's questions " +
		"directly and concisely.",
}

// buildInstructions assembles the system instruction text for a session.
func buildInstructions(config SessionConfig) string {
	template, ok := profileTemplates[config.Profile]
	if !ok {
		if config.Profile != "" {
			logger.Warn("unknown instruction profile, using general", "profile", config.Profile)
		}
		template = profileTemplates[ProfileGeneral]
	}

	sections := []string{template}
	if custom := strings.TrimSpace(config.CustomInstructions); custom != "" {
		sections = append(sections, custom)
	}
	if config.Locale != "" {
		sections = append(sections, fmt.Sprintf("Respond in the language of the %q locale.", config.Locale))
	}
	if config.SearchToolEnabled {
		sections = append(sections, "Use the web search tool when the question needs fresh or factual information.")
	}

	return strings.Join(sections, "\n\n")
}
