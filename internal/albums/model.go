package albums

import "time"

// Album groups a couple's memories.
type Album struct {
	AlbumID     string    `gorm:"column:album_id;primaryKey;size:190;not null"`
	CoupleID    string    `gorm:"column:couple_id;size:190;not null;index"`
	CreatedBy   string    `gorm:"column:created_by;size:190;not null"`
	Title       string    `gorm:"column:title;size:320;not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing albums.
func (Album) TableName() string {
	return "memory_albums"
}

// Photo is one entry in an album. Image bytes live in external storage;
// only the URL is kept here.
type Photo struct {
	PhotoID        string    `gorm:"column:photo_id;primaryKey;size:190;not null"`
	AlbumID        string    `gorm:"column:album_id;size:190;not null;index"`
	CoupleID       string    `gorm:"column:couple_id;size:190;not null;index"`
	UploadedBy     string    `gorm:"column:uploaded_by;size:190;not null"`
	ImageURL       string    `gorm:"column:image_url;size:512;not null"`
	Caption        string    `gorm:"column:caption;size:512"`
	TakenAtSeconds int64     `gorm:"column:taken_at_s;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing album photos.
func (Photo) TableName() string {
	return "album_photos"
}
