// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"
	"sort"
)

// Well-known page slugs registered at startup.
const (
	SlugCareers         = "careers"
	SlugCareersStudents = "careers-students"
)

// Registry maps page slugs to their canonical default documents. Pages are
// registered once at startup; lookups return deep copies.
type Registry struct {
	defaults map[string]Document
}

// NewRegistry creates a registry pre-populated with the built-in pages.
func NewRegistry() *Registry {
	r := &Registry{defaults: make(map[string]Document)}
	r.Register(SlugCareers, careersDefaults())
	r.Register(SlugCareersStudents, careersStudentsDefaults())
	return r
}

// Register adds or replaces the default document for a slug.
func (r *Registry) Register(slug string, defaults Document) {
	r.defaults[slug] = defaults
}

// Defaults returns a deep copy of the canonical default document for slug.
func (r *Registry) Defaults(slug string) (Document, error) {
	d, ok := r.defaults[slug]
	if !ok {
		return nil, fmt.Errorf("content: no defaults registered for slug %q", slug)
	}
	return d.DeepCopy(), nil
}

// Known reports whether a slug has registered defaults.
func (r *Registry) Known(slug string) bool {
	_, ok := r.defaults[slug]
	return ok
}

// Slugs returns all registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.defaults))
	for slug := range r.defaults {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func careersDefaults() Document {
	return Document{
		"hero": map[string]any{
			"title":    "Build your career with us",
			"subtitle": "Join the team behind unforgettable events",
			"ctaLabel": "See open roles",
			"ctaLink":  "/careers#openings",
			"imageUrl": "",
		},
		"story": map[string]any{
			"heading":      "Why work here",
			"bodyMarkdown": "We help couples and event planners find the right vendors.\n\nOur team is small, distributed, and obsessed with the details.",
		},
		"benefits": map[string]any{
			"heading": "What we offer",
			"items": []any{
				map[string]any{"title": "Flexible hours", "description": "Work when you work best."},
				map[string]any{"title": "Remote first", "description": "Office optional, always."},
				map[string]any{"title": "Event budget", "description": "Attend the events we power."},
			},
		},
		"testimonials": map[string]any{
			"heading": "From the team",
			"entries": []any{
				map[string]any{
					"quote":  "Every launch feels like opening night.",
					"author": "Maya",
					"role":   "Vendor success",
				},
			},
		},
		"faq": map[string]any{
			"heading": "Frequently asked questions",
			"entries": []any{
				map[string]any{
					"question": "Do you hire remotely?",
					"answer":   "Yes, across all time zones.",
				},
				map[string]any{
					"question": "What does the interview process look like?",
					"answer":   "A call, a practical exercise, and a team conversation.",
				},
			},
		},
	}
}

func careersStudentsDefaults() Document {
	return Document{
		"hero": map[string]any{
			"title":    "Start here, go anywhere",
			"subtitle": "Internships and first roles for students",
			"ctaLabel": "Apply now",
			"ctaLink":  "/careers/students#apply",
			"imageUrl": "",
		},
		"story": map[string]any{
			"heading":      "Learn by shipping",
			"bodyMarkdown": "Interns own real features from week one, with a mentor one message away.",
		},
		"programs": map[string]any{
			"heading": "Programs",
			"items": []any{
				map[string]any{"title": "Summer internship", "duration": "12 weeks", "paid": true},
				map[string]any{"title": "Working student", "duration": "ongoing", "paid": true},
			},
		},
		"profiles": map[string]any{
			"heading": "Former interns",
			"entries": []any{
				map[string]any{
					"name":     "Jonas",
					"role":     "Engineering",
					"quote":    "I shipped to production in my second week.",
					"imageUrl": "",
				},
			},
		},
		"faq": map[string]any{
			"heading": "Student FAQ",
			"entries": []any{
				map[string]any{
					"question": "Can I join during the semester?",
					"answer":   "Yes, the working student track runs year round.",
				},
			},
		},
	}
}
