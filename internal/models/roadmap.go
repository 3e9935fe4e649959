package models

import (
	"math"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category display defaults applied when the client omits them
const (
	DefaultCategoryIcon  = "fa-star"
	DefaultCategoryColor = "text-gray-500"
)

// Roadmap is the aggregate root: a named, owned collection of categories shared with invited users.
// Categories and items live inside the document; they have no storage of their own.
type Roadmap struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	OwnerEmail   string             `bson:"ownerEmail" json:"ownerEmail"`
	InvitedUsers []string           `bson:"invitedUsers" json:"invitedUsers"`
	Categories   []Category         `bson:"categories" json:"categories"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Category groups items inside a roadmap
type Category struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Category string             `bson:"category" json:"category"` // Display label
	Icon     string             `bson:"icon" json:"icon"`         // e.g. "fa-pizza-slice"
	Color    string             `bson:"color" json:"color"`       // e.g. "text-orange-500"
	Items    []Item             `bson:"items" json:"items"`
}

// Item is a single checklist entry
type Item struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Desc    string             `bson:"desc" json:"desc"`
	Checked bool               `bson:"checked" json:"checked"`
	Link    string             `bson:"link,omitempty" json:"link,omitempty"`
}

// Progress is the completion summary of a roadmap
type Progress struct {
	Total      int `json:"total"`
	Checked    int `json:"checked"`
	Percentage int `json:"percentage"`
}

// NewRoadmap creates an empty roadmap owned by ownerEmail
func NewRoadmap(name, ownerEmail string) *Roadmap {
	return &Roadmap{
		ID:           primitive.NewObjectID(),
		Name:         name,
		OwnerEmail:   ownerEmail,
		InvitedUsers: []string{},
		Categories:   []Category{},
		CreatedAt:    time.Now(),
	}
}

// NewCategory creates an empty category, filling in the display defaults
func NewCategory(label, icon, color string) Category {
	if icon == "" {
		icon = DefaultCategoryIcon
	}
	if color == "" {
		color = DefaultCategoryColor
	}
	return Category{
		ID:       primitive.NewObjectID(),
		Category: label,
		Icon:     icon,
		Color:    color,
		Items:    []Item{},
	}
}

// NewItem creates an unchecked item
func NewItem(name, desc, link string) Item {
	return Item{
		ID:   primitive.NewObjectID(),
		Name: name,
		Desc: desc,
		Link: link,
	}
}

// IsOwner reports whether email owns the roadmap
func (r *Roadmap) IsOwner(email string) bool {
	return email != "" && r.OwnerEmail == email
}

// IsMember reports whether email is the owner or an invited user
func (r *Roadmap) IsMember(email string) bool {
	return r.IsOwner(email) || (email != "" && slices.Contains(r.InvitedUsers, email))
}

// AddInvite appends email to the invite list.
// Returns false when email is the owner or already invited; the list is left untouched.
func (r *Roadmap) AddInvite(email string) bool {
	if r.IsMember(email) {
		return false
	}
	r.InvitedUsers = append(r.InvitedUsers, email)
	return true
}

// RemoveInvite drops email from the invite list. Returns false if it was absent.
func (r *Roadmap) RemoveInvite(email string) bool {
	idx := slices.Index(r.InvitedUsers, email)
	if idx < 0 {
		return false
	}
	r.InvitedUsers = slices.Delete(r.InvitedUsers, idx, idx+1)
	return true
}

// FindCategory returns a pointer into the aggregate, or nil
func (r *Roadmap) FindCategory(categoryID primitive.ObjectID) *Category {
	for i := range r.Categories {
		if r.Categories[i].ID == categoryID {
			return &r.Categories[i]
		}
	}
	return nil
}

// HasCategoryLabel reports whether a category with this exact label exists
func (r *Roadmap) HasCategoryLabel(label string) bool {
	return slices.ContainsFunc(r.Categories, func(c Category) bool {
		return c.Category == label
	})
}

// FindItem returns a pointer into the aggregate, or nil if either the category or the item is absent
func (r *Roadmap) FindItem(categoryID, itemID primitive.ObjectID) *Item {
	cat := r.FindCategory(categoryID)
	if cat == nil {
		return nil
	}
	for i := range cat.Items {
		if cat.Items[i].ID == itemID {
			return &cat.Items[i]
		}
	}
	return nil
}

// RemoveCategory deletes a category together with every item it contains
func (r *Roadmap) RemoveCategory(categoryID primitive.ObjectID) bool {
	before := len(r.Categories)
	r.Categories = slices.DeleteFunc(r.Categories, func(c Category) bool {
		return c.ID == categoryID
	})
	return len(r.Categories) != before
}

// RemoveItem deletes one item from one category
func (r *Roadmap) RemoveItem(categoryID, itemID primitive.ObjectID) bool {
	cat := r.FindCategory(categoryID)
	if cat == nil {
		return false
	}
	before := len(cat.Items)
	cat.Items = slices.DeleteFunc(cat.Items, func(it Item) bool {
		return it.ID == itemID
	})
	return len(cat.Items) != before
}

// Progress counts checked items across all categories
func (r *Roadmap) Progress() Progress {
	var p Progress
	for _, cat := range r.Categories {
		for _, it := range cat.Items {
			p.Total++
			if it.Checked {
				p.Checked++
			}
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Checked) / float64(p.Total) * 100))
	}
	return p
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (r *Roadmap) Clone() *Roadmap {
	out := *r
	out.InvitedUsers = slices.Clone(r.InvitedUsers)
	out.Categories = make([]Category, len(r.Categories))
	for i, cat := range r.Categories {
		cat.Items = slices.Clone(cat.Items)
		out.Categories[i] = cat
	}
	return &out
}

// LegacyCategory is a document from the flat pre-roadmap collection, kept only as a migration source
type LegacyCategory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id" yaml:"-"`
	Category  string             `bson:"category" json:"category" yaml:"category"`
	Icon      string             `bson:"icon" json:"icon" yaml:"icon"`
	Color     string             `bson:"color" json:"color" yaml:"color"`
	Items     []LegacyItem       `bson:"items" json:"items" yaml:"items"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt" yaml:"-"`
}

// LegacyItem is an item of a legacy category
type LegacyItem struct {
	Name    string `bson:"name" json:"name" yaml:"name"`
	Desc    string `bson:"desc" json:"desc" yaml:"desc"`
	Checked bool   `bson:"checked" json:"checked" yaml:"checked"`
}

// ToCategory converts a legacy category into a fresh roadmap category with new identifiers
func (lc LegacyCategory) ToCategory() Category {
	cat := NewCategory(lc.Category, lc.Icon, lc.Color)
	for _, li := range lc.Items {
		it := NewItem(li.Name, li.Desc, "")
		it.Checked = li.Checked
		cat.Items = append(cat.Items, it)
	}
	return cat
}
