package models

// Testimonial statuses. Public submissions start as pending and appear on
// the site only after moderation.
const (
	TestimonialPending  = "pending"
	TestimonialApproved = "approved"
)

// Testimonial is a visitor-submitted recommendation shown on the site.
type Testimonial struct {
	BaseModel

	Author  string `gorm:"not null" json:"author"`
	Company string `json:"company"`
	Quote   string `gorm:"not null;type:text" json:"quote"`
	Rating  int    `gorm:"default:5" json:"rating"`
	Status  string `gorm:"not null;default:pending;index" json:"status"`
}
