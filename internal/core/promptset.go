package core

import (
	"strconv"
	"strings"
	"sync"

	"inside-notes/pkg"
)

// PromptSet is the list of configured rewrite templates.  It is shared by
// every workflow; reads return copies.
type PromptSet struct {
	mu      sync.RWMutex
	prompts []pkg.Prompt
}

// NewPromptSet returns a set holding the given templates, or the default
// template when none are given.
func NewPromptSet(prompts ...pkg.Prompt) *PromptSet {
	if len(prompts) == 0 {
		prompts = []pkg.Prompt{{Name: DefaultPromptName, Content: DefaultPromptContent}}
	}
	return &PromptSet{prompts: append([]pkg.Prompt(nil), prompts...)}
}

// List returns a copy of the templates in configuration order.
func (s *PromptSet) List() []pkg.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]pkg.Prompt(nil), s.prompts...)
}

// Len returns the number of templates.
func (s *PromptSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts)
}

// Get looks a template up by name.
func (s *PromptSet) Get(name string) (pkg.Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prompts {
		if p.Name == name {
			return p, true
		}
	}
	return pkg.Prompt{}, false
}

// Add appends a template.
func (s *PromptSet) Add(p pkg.Prompt) error {
	if err := validatePrompt(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	return nil
}

// Update replaces the template at index i.
func (s *PromptSet) Update(i int, p pkg.Prompt) error {
	if err := validatePrompt(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.prompts) {
		return &NotFoundError{Resource: "prompt", ID: strconv.Itoa(i)}
	}
	s.prompts[i] = p
	return nil
}

// Delete removes the template at index i.
func (s *PromptSet) Delete(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.prompts) {
		return &NotFoundError{Resource: "prompt", ID: strconv.Itoa(i)}
	}
	s.prompts = append(s.prompts[:i], s.prompts[i+1:]...)
	return nil
}

func validatePrompt(p pkg.Prompt) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if strings.TrimSpace(p.Content) == "" {
		return &ValidationError{Field: "content", Message: "required"}
	}
	return nil
}
