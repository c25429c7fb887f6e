package topic

import (
	"strings"
	"unicode"
)

// Label names the subject a visitor message is about.
type Label string

const (
	General    Label = "general"
	Skills     Label = "skills"
	Projects   Label = "projects"
	Experience Label = "experience"
	Services   Label = "services"
	Education  Label = "education"
	Greeting   Label = "greeting"
	Thanks     Label = "thanks"
)

// bucket matches a word when it starts with one of stems or equals one of
// words. Greetings are exact so "hi" does not fire on "his" or "hire".
type bucket struct {
	label Label
	stems []string
	words []string
}

// buckets are checked in order; the first hit wins.
var buckets = []bucket{
	{label: Skills, stems: []string{"skill", "technolog", "programming", "stack"}},
	{label: Projects, stems: []string{"project", "portfolio"}, words: []string{"work", "works"}},
	{label: Experience, stems: []string{"experience", "background", "career"}},
	{label: Services, stems: []string{"service", "hire", "hiring", "consult"}},
	{label: Education, stems: []string{"education", "certific", "study", "degree"}},
	{label: Greeting, words: []string{"hello", "hi", "hey", "greetings"}},
	{label: Thanks, stems: []string{"thank"}, words: []string{"thx"}},
}

var replies = map[Label]string{
	Skills:     "I specialize in Python, Machine Learning, Computer Vision, and AI development. My core technologies include TensorFlow, PyTorch, FastAPI, and React.js. I have 5+ years of experience in AI engineering.",
	Projects:   "I've worked on various AI projects including an Image Recognition System for manufacturing, NLP Chatbots for customer service, and this portfolio website with AI assistant integration. Each project showcases different aspects of AI and machine learning.",
	Experience: "I'm currently a Senior AI Engineer at TechCorp Vietnam with 5+ years of experience in AI and machine learning. I previously worked as a Machine Learning Engineer at DataTech Solutions. I hold a Computer Science degree with specialization in AI.",
	Services:   "I offer AI consultation, machine learning model development, computer vision solutions, and data science services. I can help with AI strategy, model development, deployment, and system integration. Feel free to contact me to discuss your specific needs!",
	Education:  "I have a Bachelor's degree in Computer Science from University of Technology, specializing in AI and Machine Learning. I also hold certifications in AI Foundation, Data Science, and Machine Learning from various institutes.",
	Greeting:   "Hello! I'm Huynh Duc Anh's AI assistant. I'm here to help you learn about my skills, projects, and experience in AI engineering. What would you like to know?",
	Thanks:     "You're welcome! I'm happy to help. If you have any other questions about my AI expertise or projects, feel free to ask!",
	General:    "I'm an AI assistant for Huynh Duc Anh's portfolio. I can help you learn about his AI engineering skills, machine learning projects, experience, and services. What specific information would you like to know?",
}

// MaxSuggestions caps every suggestion list.
const MaxSuggestions = 5

var defaultSuggestions = []string{
	"Tell me about your AI projects",
	"What machine learning frameworks do you use?",
	"How did you get started in AI?",
	"What services do you offer?",
	"Can you show me your certifications?",
	"What's your experience with computer vision?",
	"How can you help with my AI project?",
	"What programming languages do you specialize in?",
}

var projectSuggestions = []string{
	"Tell me about your image recognition project",
	"How did you build the NLP chatbot?",
	"What technologies did you use in your projects?",
	"Can you explain your computer vision work?",
}

var skillSuggestions = []string{
	"What's your Python expertise level?",
	"How experienced are you with TensorFlow?",
	"Do you work with PyTorch?",
	"What about React.js and web development?",
}

// Classify returns the first topic whose keywords appear in message.
func Classify(message string) Label {
	words := tokenize(message)
	if len(words) == 0 {
		return General
	}

	for _, b := range buckets {
		if b.matches(words) {
			return b.label
		}
	}
	return General
}

// Reply returns the canned answer for label.
func Reply(label Label) string {
	if reply, ok := replies[label]; ok {
		return reply
	}
	return replies[General]
}

// Suggestions picks follow-up prompts for a free-form topic hint.
func Suggestions(topicHint string) []string {
	hint := strings.ToLower(topicHint)

	source := defaultSuggestions
	switch {
	case strings.Contains(hint, "project"):
		source = projectSuggestions
	case strings.Contains(hint, "skill"):
		source = skillSuggestions
	}

	n := min(len(source), MaxSuggestions)
	out := make([]string, n)
	copy(out, source[:n])
	return out
}

func (b bucket) matches(words []string) bool {
	for _, word := range words {
		for _, exact := range b.words {
			if word == exact {
				return true
			}
		}
		for _, stem := range b.stems {
			if strings.HasPrefix(word, stem) {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
