package domain

type (
	ResourceID   string
	ResourceType string
)

const ResourceNote ResourceType = "note"

// Share grants one user a permission level on one resource.
type Share struct {
	ID           string       `json:"id"`
	ResourceID   ResourceID   `json:"resourceId"`
	ResourceType ResourceType `json:"resourceType"`
	UserID       UserID       `json:"userId"`
	Level        Level        `json:"level"`
}
