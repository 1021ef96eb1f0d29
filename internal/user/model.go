package user

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `json:"password,omitempty"`
	Level    int    `gorm:"default:1" json:"level"`
}

// Rating is one skill value per (user, mode, operation) tuple. Only the
// matchmaking engine's output mutates Value.
type Rating struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index:idx_rating_key,unique" json:"user_id"`
	Mode      string `gorm:"not null;index:idx_rating_key,unique" json:"mode"`
	Operation string `gorm:"not null;index:idx_rating_key,unique" json:"operation"`
	Value     int    `gorm:"not null" json:"value"`
}

type RatingResponse struct {
	Username string   `json:"username"`
	Ratings  []Rating `json:"ratings"`
}
