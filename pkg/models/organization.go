package models

import "time"

// Folder groups recipes for navigation. Folders are not versioned.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Name      string    `json:"name"    validate:"required,min=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a free-form label applied to recipes.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Name      string    `json:"name"    validate:"required,min=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderMembership links a recipe into a folder.
type FolderMembership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FolderID  string    `json:"folder_id" validate:"required"`
	RecipeID  string    `json:"recipe_id" validate:"required"`
	AddedAt   time.Time `json:"added_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagMembership links a tag to a recipe by tag name.
type TagMembership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RecipeID  string    `json:"recipe_id" validate:"required"`
	TagName   string    `json:"tag_name"  validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
