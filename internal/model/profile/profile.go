package profile

import "github.com/huynhducanh/portfolio/backend/internal/model/chat"

// Project is a portfolio project the assistant can talk about.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Category     string   `json:"category"`
}

// Role is one position of the owner's work history.
type Role struct {
	Position string `json:"position"`
	Company  string `json:"company"`
	Period   string `json:"period"`
}

// Profile captures the portfolio owner the assistant speaks for.
type Profile struct {
	Name            string              `json:"name"`
	Title           string              `json:"title"`
	Location        string              `json:"location"`
	Email           string              `json:"email"`
	LinkedIn        string              `json:"linkedin"`
	Bio             string              `json:"bio"`
	ExperienceYears int                 `json:"experienceYears"`
	Specialties     []string            `json:"specialties"`
	Skills          map[string][]string `json:"skills"`
	Experience      []Role              `json:"experience"`
	Education       string              `json:"education"`
	Projects        []Project           `json:"projects"`
	Services        []string            `json:"services"`
}

// Contact returns the collateral attached to degraded chat replies.
func (p Profile) Contact() chat.ContactInfo {
	return chat.ContactInfo{Email: p.Email, LinkedIn: p.LinkedIn}
}

// SkillGroups lists skill group names in a stable order.
func (p Profile) SkillGroups() []string {
	return []string{"programming", "ai_ml", "frameworks", "tools"}
}

// Seed provides the owner profile served by the assistant.
func Seed() Profile {
	return Profile{
		Name:            "Huynh Duc Anh",
		Title:           "AI Engineer",
		Location:        "Ho Chi Minh City, Vietnam",
		Email:           "huynhducanh.ai@gmail.com",
		LinkedIn:        "https://linkedin.com/in/huynhducanh",
		Bio:             "An AI engineer with expertise in Python, Machine Learning, Deep Learning and Computer Vision. Passionate about creating intelligent solutions that solve real-world problems.",
		ExperienceYears: 5,
		Specialties:     []string{"Artificial Intelligence", "Machine Learning", "Computer Vision", "Data Science"},
		Skills: map[string][]string{
			"programming": {"Python", "JavaScript", "SQL"},
			"ai_ml":       {"TensorFlow", "PyTorch", "Scikit-learn", "OpenCV", "NLTK"},
			"frameworks":  {"FastAPI", "React.js", "Node.js", "Flask"},
			"tools":       {"Docker", "Git", "AWS", "Google Cloud"},
		},
		Experience: []Role{
			{Position: "Senior AI Engineer", Company: "TechCorp Vietnam", Period: "2023 - Present"},
			{Position: "Machine Learning Engineer", Company: "DataTech Solutions", Period: "2021 - 2023"},
			{Position: "Junior Data Scientist", Company: "StartupAI", Period: "2020 - 2021"},
		},
		Education: "Bachelor of Computer Science, specializing in AI/ML",
		Projects: []Project{
			{
				Name:         "AI-Powered Image Recognition System",
				Description:  "Computer vision system for automated quality control in manufacturing using deep learning",
				Technologies: []string{"Python", "OpenCV", "TensorFlow", "FastAPI", "Docker"},
				Category:     "Computer Vision",
			},
			{
				Name:         "Natural Language Processing Chatbot",
				Description:  "Intelligent chatbot for customer service automation with sentiment analysis",
				Technologies: []string{"Python", "NLTK", "Transformers", "Flask", "Redis"},
				Category:     "NLP",
			},
			{
				Name:         "Portfolio Website with AI Assistant",
				Description:  "Modern portfolio website with integrated AI assistant for real-time interaction",
				Technologies: []string{"React.js", "Go", "FastAPI", "WebSocket", "OpenAI"},
				Category:     "Web Development",
			},
		},
		Services: []string{
			"AI Strategy Consultation",
			"Machine Learning Model Development",
			"Computer Vision Solutions",
			"Data Science & Analytics",
			"AI System Integration",
		},
	}
}
