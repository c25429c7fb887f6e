package ai

import (
	"fmt"
	"strings"

	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/model/profile"
)

var contextFocus = map[chat.Context]string{
	chat.ContextTechnical: "Focus on technical aspects, implementation details, and methodologies.",
}

// BuildSystemPrompt describes the owner to the model and appends the focus
// for the conversation context, if any.
func BuildSystemPrompt(p profile.Profile, convContext chat.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant for %s's portfolio website. You represent %s, an experienced %s specializing in %s.\n\n",
		p.Name, p.Name, p.Title, strings.Join(p.Specialties, ", "))

	fmt.Fprintf(&b, "Key Information about %s:\n", p.Name)
	fmt.Fprintf(&b, "- Name: %s\n- Title: %s\n- Location: %s\n- Email: %s\n- Experience: %d+ years in AI/ML\n\n",
		p.Name, p.Title, p.Location, p.Email, p.ExperienceYears)

	b.WriteString("Skills & Technologies:\n")
	for _, group := range p.SkillGroups() {
		if skills := p.Skills[group]; len(skills) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", skillGroupTitle(group), strings.Join(skills, ", "))
		}
	}

	b.WriteString("\nExperience:\n")
	for _, role := range p.Experience {
		fmt.Fprintf(&b, "- %s at %s (%s)\n", role.Position, role.Company, role.Period)
	}
	if p.Education != "" {
		fmt.Fprintf(&b, "- Education: %s\n", p.Education)
	}

	b.WriteString("\nNotable Projects:\n")
	for i, project := range p.Projects {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, project.Name, project.Description)
	}

	b.WriteString("\nServices Offered:\n")
	for _, service := range p.Services {
		fmt.Fprintf(&b, "- %s\n", service)
	}

	b.WriteString(`
Instructions:
- Be helpful, professional, and knowledgeable
- Provide specific, accurate information about skills and experience
- Encourage users to contact for collaboration opportunities
- Keep responses concise but informative
- If asked about topics outside your expertise, politely redirect to relevant portfolio areas`)

	if focus, ok := contextFocus[convContext]; ok {
		b.WriteString("\n\n")
		b.WriteString(focus)
	}
	return b.String()
}

func skillGroupTitle(group string) string {
	switch group {
	case "programming":
		return "Programming"
	case "ai_ml":
		return "AI/ML"
	case "frameworks":
		return "Frameworks"
	case "tools":
		return "Tools"
	default:
		return group
	}
}
