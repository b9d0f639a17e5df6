package model

import "time"

// Category is the top level of the content hierarchy.
type Category struct {
	ID          string    `json:"_id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Subcategory belongs to exactly one Category. Category is populated on reads
// and never persisted.
type Subcategory struct {
	ID          string    `json:"_id" bson:"_id"`
	CategoryID  string    `json:"category_id" bson:"category_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`

	Category *Category `json:"category,omitempty" bson:"-"`
}

// Item types.
const (
	ItemTypePDF     = "pdf"
	ItemTypeYouTube = "youtube_url"
)

// Item is a leaf of the hierarchy. Exactly one of FilePath and YoutubeURL is
// set, chosen by Type.
type Item struct {
	ID            string    `json:"_id" bson:"_id"`
	SubcategoryID string    `json:"subcategory_id" bson:"subcategory_id"`
	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	Type          string    `json:"type" bson:"type"`
	FilePath      string    `json:"file_path,omitempty" bson:"file_path,omitempty"`
	YoutubeURL    string    `json:"youtube_url,omitempty" bson:"youtube_url,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`

	Subcategory *Subcategory `json:"subcategory,omitempty" bson:"-"`
}

// SetPayload stores the payload matching the item type and clears the other one.
func (it *Item) SetPayload(filePath, youtubeURL string) {
	switch it.Type {
	case ItemTypePDF:
		it.FilePath = filePath
		it.YoutubeURL = ""
	case ItemTypeYouTube:
		it.YoutubeURL = youtubeURL
		it.FilePath = ""
	}
}
