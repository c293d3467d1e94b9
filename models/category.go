package models

import "strings"

// Category is a fixed topic partition used to group threads.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// CategoryRegistry is an ordered, read-only set of categories built once at startup.
type CategoryRegistry struct {
	items []Category
}

// NewCategoryRegistry copies items so later changes to the argument do not leak in.
func NewCategoryRegistry(items []Category) *CategoryRegistry {
	cp := make([]Category, len(items))
	copy(cp, items)
	return &CategoryRegistry{items: cp}
}

// DefaultCategories returns the engineering category set shipped with the forum.
func DefaultCategories() *CategoryRegistry {
	return NewCategoryRegistry([]Category{
		{ID: "civil", Name: "Civil Engineering", Icon: "🏗️", Description: "Construction projects, structural design and infrastructure"},
		{ID: "electrical", Name: "Electrical Engineering", Icon: "⚡", Description: "Power systems, electronics and electrical networks"},
		{ID: "mechanical", Name: "Mechanical Engineering", Icon: "⚙️", Description: "Machinery, thermodynamics and manufacturing"},
		{ID: "software", Name: "Software Engineering", Icon: "💻", Description: "Programming, app development and artificial intelligence"},
		{ID: "chemical", Name: "Chemical Engineering", Icon: "🧪", Description: "Chemical processes and petrochemical industries"},
		{ID: "architecture", Name: "Architecture Engineering", Icon: "🏛️", Description: "Architectural design, urbanism and interior design"},
		{ID: "discussion", Name: "General Discussion", Icon: "💬", Description: "General discussions and diverse engineering topics"},
	})
}

// ListAll returns the categories in registry order. The slice is a copy.
func (r *CategoryRegistry) ListAll() []Category {
	out := make([]Category, len(r.items))
	copy(out, r.items)
	return out
}

// GetByID looks a category up case-insensitively.
func (r *CategoryRegistry) GetByID(id string) (Category, bool) {
	id = strings.TrimSpace(id)
	for _, c := range r.items {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return Category{}, false
}

// Len reports how many categories are registered.
func (r *CategoryRegistry) Len() int {
	return len(r.items)
}
