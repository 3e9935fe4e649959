package models

// CreateRoadmapRequest is the request body for creating a roadmap
type CreateRoadmapRequest struct {
	Name string `json:"name"`
}

// AddCategoryRequest is the request body for appending a category
type AddCategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// AddItemRequest is the request body for appending an item to a category
type AddItemRequest struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
	Link string `json:"link,omitempty"`
}

// MemberRequest is the request body for inviting a user
type MemberRequest struct {
	Email string `json:"email"`
}

// DeleteType selects what a delete request targets
type DeleteType string

const (
	DeleteTypeRoadmap  DeleteType = "roadmap"
	DeleteTypeCategory DeleteType = "category"
	DeleteTypeItem     DeleteType = "item"
)

// DeleteRequest mirrors the single delete dispatcher used by the web client
type DeleteRequest struct {
	RoadmapID  string     `json:"roadmapId"`
	CategoryID string     `json:"categoryId,omitempty"`
	ItemID     string     `json:"itemId,omitempty"`
	Type       DeleteType `json:"type"`
}

// BucketActionRequest is the body of the legacy POST /api/bucket dispatcher
type BucketActionRequest struct {
	Action        string `json:"action"` // createRoadmap, addCategory, addItem, inviteUser, removeUser
	RoadmapID     string `json:"roadmapId,omitempty"`
	CategoryID    string `json:"categoryId,omitempty"`
	Name          string `json:"name,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Color         string `json:"color,omitempty"`
	Desc          string `json:"desc,omitempty"`
	Link          string `json:"link,omitempty"`
	EmailToInvite string `json:"emailToInvite,omitempty"`
	EmailToRemove string `json:"emailToRemove,omitempty"`
}

// BucketPatchRequest is the body of the legacy PATCH /api/bucket item update
type BucketPatchRequest struct {
	RoadmapID  string `json:"roadmapId"`
	CategoryID string `json:"categoryId"`
	ItemID     string `json:"itemId"`
	ItemPatch
}

// MigrateResponse reports how many legacy categories were copied
type MigrateResponse struct {
	Migrated int `json:"migrated"`
}

// RoadmapSummary is one entry of the caller's roadmap list
type RoadmapSummary struct {
	*Roadmap
	Owner    UserProfile `json:"owner"`
	Progress Progress    `json:"progress"`
}

// RoadmapDetail is a roadmap with every member's display profile attached
type RoadmapDetail struct {
	*Roadmap
	Owner    UserProfile   `json:"owner"`
	Invited  []UserProfile `json:"invited"`
	Progress Progress      `json:"progress"`
}
