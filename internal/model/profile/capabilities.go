package profile

// Capabilities advertises what the assistant can discuss.
type Capabilities struct {
	Features      []string `json:"features"`
	Topics        []string `json:"topics"`
	Languages     []string `json:"languages"`
	ResponseTypes []string `json:"response_types"`
}

// DefaultCapabilities is served by GET /capabilities.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Features: []string{
			"Portfolio Q&A",
			"Skills Discussion",
			"Project Information",
			"Experience Details",
			"Technical Consultation",
			"Career Guidance",
		},
		Topics: []string{
			"Artificial Intelligence",
			"Machine Learning",
			"Computer Vision",
			"Data Science",
			"Python Programming",
			"Web Development",
			"Project Management",
			"Career Development",
		},
		Languages: []string{"English", "Vietnamese"},
		ResponseTypes: []string{
			"Text responses",
			"Code examples",
			"Technical explanations",
			"Career advice",
			"Project recommendations",
		},
	}
}

// FallbackSuggestions is the fixed list offered whenever the AI service
// cannot produce suggestions.
func FallbackSuggestions() []string {
	return []string{
		"Tell me about your AI projects",
		"What machine learning frameworks do you use?",
		"How did you get started in AI?",
		"What services do you offer?",
		"Can you show me your certifications?",
	}
}

// WelcomeMessage greets newly registered chat connections.
const WelcomeMessage = "Welcome to my portfolio! I'm your AI assistant. How can I help you today?"

// ApologyMessage is sent with the contact collateral when the AI service fails.
const ApologyMessage = "I'm having trouble connecting to my AI brain right now. Please try again in a moment, or feel free to contact me directly!"
