package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is the fixed onboarding content shown before a chat has any real
// messages. Steps are revealed cumulatively during a first-ever session;
// WelcomeBack is the single line shown to a returning user opening an empty
// chat.
type Script struct {
	Steps       []string `yaml:"steps"`
	WelcomeBack string   `yaml:"welcome_back"`
}

// DefaultScript returns the built-in Theia onboarding sequence.
func DefaultScript() Script {
	return Script{
		Steps: []string{
			"Welcome. I am Theia. This is a space for you to find clarity. My purpose is not to provide answers, but to help you discover your own. I will listen and ask questions to help you navigate the path from where you are now to where you want to be.",
			"Our conversations are a form of coaching—a partnership focused on your present and future. The goal is to help you identify your aspirations, recognize what might be holding you back, and empower you to move forward. This is a confidential and non-judgmental space for you to think and feel freely.",
			"To get the most out of our time, honesty and openness are key. You can start with whatever is most present for you—a challenge, a goal, or just a feeling. There's no right or wrong place to begin.\n\nAs we talk, any insights you gain can be saved to your 'Rock Garden' using the save icon that appears next to my messages.\n\nTo begin, what's on your mind right now?",
		},
		WelcomeBack: "Welcome back. This is a fresh space for us to explore together. Whenever you're ready, share what's on your mind.",
	}
}

// LoadScript reads a YAML override of the onboarding script. An empty path
// returns the default; missing fields in the file fall back to the default.
func LoadScript(path string) (Script, error) {
	script := DefaultScript()
	if path == "" {
		return script, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("read tutorial script: %w", err)
	}
	var override Script
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return script, fmt.Errorf("parse tutorial script: %w", err)
	}
	if len(override.Steps) > 0 {
		script.Steps = override.Steps
	}
	if override.WelcomeBack != "" {
		script.WelcomeBack = override.WelcomeBack
	}
	return script, nil
}
