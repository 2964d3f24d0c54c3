package main

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/rushilahane/portfolio/internal/reveal"
)

// Stat is a headline number such as "70%" with its label.
type Stat struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type SkillGroup struct {
	Label  string   `yaml:"label"`
	Skills []string `yaml:"skills"`
}

type ExperienceItem struct {
	Title      string   `yaml:"title"`
	Company    string   `yaml:"company"`
	Period     string   `yaml:"period"`
	Location   string   `yaml:"location"`
	Highlights []string `yaml:"highlights"`
}

type Project struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Emoji       string   `yaml:"emoji"`
}

// LiveApp is a shipped app shown with a QR code to its listing.
type LiveApp struct {
	Name        string `yaml:"name"`
	Platform    string `yaml:"platform"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

type Education struct {
	Degree     string `yaml:"degree"`
	University string `yaml:"university"`
	Period     string `yaml:"period"`
	Location   string `yaml:"location"`
}

// Portfolio is everything the page renders.
type Portfolio struct {
	Name           string           `yaml:"name"`
	Role           string           `yaml:"role"`
	Tagline        string           `yaml:"tagline"`
	Email          string           `yaml:"email"`
	Phone          string           `yaml:"phone"`
	GitHub         string           `yaml:"github"`
	LinkedIn       string           `yaml:"linkedin"`
	Location       string           `yaml:"location"`
	About          string           `yaml:"about"`
	Stats          []Stat           `yaml:"stats"`
	Metrics        []Stat           `yaml:"metrics"`
	SkillGroups    []SkillGroup     `yaml:"skillGroups"`
	Experience     []ExperienceItem `yaml:"experience"`
	Projects       []Project        `yaml:"projects"`
	LiveApps       []LiveApp        `yaml:"liveApps"`
	Education      Education        `yaml:"education"`
	Certifications []string         `yaml:"certifications"`
}

var errNoLeadingNumber = errors.New("stat value has no leading integer")

// ParseStat splits a display value like "70%" or "5+" into its integer and
// the text that follows it.
func ParseStat(value string) (int, string, error) {
	value = strings.TrimSpace(value)
	end := strings.IndexFunc(value, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(value)
	}
	if end == 0 {
		return 0, "", fmt.Errorf("%q: %w", value, errNoLeadingNumber)
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0, "", fmt.Errorf("%q: %w", value, err)
	}
	return n, value[end:], nil
}

// RevealMetrics turns stats into counter targets.
func RevealMetrics(stats []Stat) ([]reveal.Metric, error) {
	out := make([]reveal.Metric, 0, len(stats))
	for _, s := range stats {
		n, suffix, err := ParseStat(s.Value)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", s.Label, err)
		}
		out = append(out, reveal.Metric{Label: s.Label, Target: n, Suffix: suffix})
	}
	return out, nil
}

// Validate checks the fields the page cannot render without.
func (p *Portfolio) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("portfolio name is required")
	}
	if _, err := RevealMetrics(p.Stats); err != nil {
		return err
	}
	if _, err := RevealMetrics(p.Metrics); err != nil {
		return err
	}
	return nil
}

// FirstName is the name shown in the hero greeting.
func (p *Portfolio) FirstName() string {
	if f := strings.Fields(p.Name); len(f) > 0 {
		return f[0]
	}
	return p.Name
}

// Initials is the navbar logo text.
func (p *Portfolio) Initials() string {
	var b strings.Builder
	for _, f := range strings.Fields(p.Name) {
		r := []rune(f)
		b.WriteRune(unicode.ToUpper(r[0]))
	}
	return b.String()
}

// AboutHTML renders the about text as markdown.
func (p *Portfolio) AboutHTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(p.About), &buf); err != nil {
		return "", fmt.Errorf("render about: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// LoadPortfolio reads a YAML content file.
func LoadPortfolio(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	p := &Portfolio{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse content %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid content %s: %w", path, err)
	}
	return p, nil
}

// DefaultPortfolio is the built-in content.
func DefaultPortfolio() *Portfolio {
	return &Portfolio{
		Name:     "Rushikesh Lahane",
		Role:     "Senior Mobile Developer",
		Tagline:  "Building high-performance cross-platform apps with React Native & TypeScript.",
		Email:    "rushilahane10@gmail.com",
		Phone:    "+91 9561211947",
		GitHub:   "https://github.com/rushilahane",
		LinkedIn: "https://linkedin.com/in/rushilahane",
		Location: "Pune, Maharashtra, India",
		About: `Senior Mobile Developer with 5+ years of expertise in cross-platform application development using React Native and JavaScript/TypeScript. Proven track record of building scalable, high-performance mobile applications with pixel-perfect UIs.

I bring strong experience across the full development cycle — from architecture and state management to API integrations, payment systems, and App Store deployment. I'm passionate about performance optimization and mentoring teams to ship clean, production-ready code.`,
		Stats: []Stat{
			{Value: "5+", Label: "Years Experience"},
			{Value: "70%", Label: "Faster Update Cycles"},
			{Value: "60%", Label: "Re-render Reduction"},
			{Value: "95%", Label: "OCR Accuracy"},
		},
		Metrics: []Stat{
			{Value: "70%", Label: "Faster Update Cycles"},
			{Value: "60%", Label: "Re-render Reduction"},
			{Value: "95%", Label: "OCR Accuracy"},
		},
		SkillGroups: []SkillGroup{
			{Label: "Mobile Development", Skills: []string{"React Native", "JavaScript", "TypeScript", "React Hooks", "Redux", "Context API", "iOS", "Android", "Expo"}},
			{Label: "Frontend", Skills: []string{"React.js", "HTML", "CSS", "Responsive Design", "Component Architecture"}},
			{Label: "Tools & Platforms", Skills: []string{"Xcode", "Android Studio", "VS Code", "Git", "GitHub", "GitLab", "Jira", "Firebase"}},
			{Label: "Integrations", Skills: []string{"REST APIs", "Socket.IO", "Google Maps", "Payment Gateways", "In-App Payments", "OCR Integration"}},
			{Label: "Cloud & Backend", Skills: []string{"Firebase", "Push Notifications", "Crashlytics", "Social Auth (Google, Facebook, Apple, LinkedIn)"}},
			{Label: "Deployment", Skills: []string{"Apple App Store", "Google Play Store", "CI/CD", "Expo OTA Updates"}},
		},
		Experience: []ExperienceItem{
			{
				Title:    "Senior Developer — Mobile App",
				Company:  "Intangles Lab",
				Period:   "July 2025 – Present",
				Location: "Pune, Maharashtra, India",
				Highlights: []string{
					"Leading mobile application development, architecting scalable solutions for complex business requirements.",
					"Mentoring junior developers on React Native best practices and modern development workflows.",
					"Implemented Expo OTA Updates enabling instant deployments without store releases — reducing update cycles by 70%.",
					"Executed React Native version upgrades from 0.68 → 0.73 → 0.83, improving app stability by 25%.",
					"Optimized components using React.memo, useMemo, useCallback — reducing unnecessary re-renders by 60%.",
					"Built real-time analytics dashboards with Line, Bar, Pie & Scatter plots using Victory Native and RN Charts.",
				},
			},
			{
				Title:    "Software Developer",
				Company:  "Intangles Lab",
				Period:   "April 2023 – July 2025",
				Location: "Pune, Maharashtra, India",
				Highlights: []string{
					"Developed and maintained multiple production React Native apps serving thousands of users on iOS & Android.",
					"Integrated OCR (Google ML Kit) for document scanning — processing 500+ documents daily at 95% accuracy.",
					"Built custom graph components for vehicle diagnostics (speed, fuel, engine metrics) at smooth 60 FPS.",
					"Implemented Firebase push notifications, crash reporting, and real-time database synchronization.",
					"Created reusable component libraries with lazy loading & virtualized lists — reducing memory usage by 40%.",
					"Integrated payment gateways, Socket.IO real-time communication, and location-based features.",
				},
			},
			{
				Title:    "Senior Software Developer",
				Company:  "Redbytes Software",
				Period:   "December 2021 – April 2023",
				Location: "Pune, Maharashtra, India",
				Highlights: []string{
					"Built pixel-perfect, responsive UIs for mobile and tablet following design specs with 99% accuracy.",
					"Reduced bundle size by 35% and initial load time by 2.5s through memoization and code splitting.",
					"Published and managed multiple applications on Apple App Store and Google Play Store.",
					"Implemented interactive charts (bar, line, donut) for financial & analytics apps using Recharts and D3.js.",
					"Integrated social auth flows (Google, Facebook, Apple, LinkedIn) improving user onboarding by 40%.",
				},
			},
			{
				Title:    "Software Developer",
				Company:  "Redbytes Software",
				Period:   "November 2020 – December 2021",
				Location: "Pune, Maharashtra, India",
				Highlights: []string{
					"Developed cross-platform mobile apps using React Native, Redux, and modern JavaScript.",
					"Integrated Google Maps API and location services for real-time tracking and geolocation features.",
					"Reduced app crash rate by 45% through performance monitoring and optimized rendering cycles.",
					"Collaborated with designers and backend teams on RESTful API integrations and WebSocket connections.",
				},
			},
		},
		Projects: []Project{
			{
				Title:       "Vehicle Diagnostics Dashboard",
				Description: "Real-time analytics dashboard for vehicle data — speed, fuel consumption, and engine metrics rendered at 60 FPS with Line, Bar, Pie, and Scatter plot visualizations using Victory Native.",
				Tags:        []string{"React Native", "Victory Native", "Socket.IO", "Firebase"},
				Emoji:       "🚗",
			},
			{
				Title:       "OCR Document Scanner",
				Description: "Mobile app feature integrating Google ML Kit for document scanning and text extraction — processing 500+ documents daily with 95% accuracy, including ID cards and invoices.",
				Tags:        []string{"React Native", "Google ML Kit", "OCR", "TypeScript"},
				Emoji:       "📄",
			},
			{
				Title:       "Cross-Platform Payment App",
				Description: "Full-cycle React Native application with payment gateway integration, in-app purchases, social auth (Google, Facebook, Apple, LinkedIn), and OTA update delivery via Expo.",
				Tags:        []string{"React Native", "Expo OTA", "Payment Gateway", "Redux"},
				Emoji:       "💳",
			},
			{
				Title:       "Real-Time Tracking Platform",
				Description: "Location-based mobile app with Google Maps integration, real-time geolocation tracking via Socket.IO, and WebSocket connections for live data updates on iOS and Android.",
				Tags:        []string{"React Native", "Google Maps", "Socket.IO", "Android/iOS"},
				Emoji:       "📍",
			},
		},
		LiveApps: []LiveApp{
			{
				Name:        "Intangles on Google Play",
				Platform:    "Android",
				Description: "Production React Native apps I build and maintain at Intangles Lab.",
				URL:         "https://play.google.com/store/search?q=Intangles&c=apps",
			},
			{
				Name:        "Open source",
				Platform:    "GitHub",
				Description: "Side projects, experiments and this site's source.",
				URL:         "https://github.com/rushilahane",
			},
		},
		Education: Education{
			Degree:     "Bachelor of Engineering — Computer Science",
			University: "Sant Gadge Baba Amravati University",
			Period:     "2015 – 2019",
			Location:   "Amravati, India",
		},
		Certifications: []string{"React Native and Redux Course using Hooks – Udemy"},
	}
}
