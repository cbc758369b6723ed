package dto

import (
	"time"

	"github.com/spec-kit/admissions-service/internal/domain"
)

// RegisterSchoolRequest payload.
type RegisterSchoolRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// SchoolReviewRequest payload for approve/reject decisions.
type SchoolReviewRequest struct {
	Comment string `json:"comment"`
}

// SchoolProfileRequest payload.
type SchoolProfileRequest struct {
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
}

// SpotRequest payload declaring grade capacity.
type SpotRequest struct {
	Grade    int `json:"grade"`
	Capacity int `json:"capacity"`
}

// GalleryEntryRequest payload.
type GalleryEntryRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// SchoolResponse serialized school.
type SchoolResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	ManagerID string    `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSchoolResponse maps a domain school.
func NewSchoolResponse(school *domain.School) SchoolResponse {
	return SchoolResponse{
		ID:        school.ID,
		Name:      school.Name,
		Address:   school.Address,
		Status:    string(school.Status),
		ManagerID: school.ManagerID,
		CreatedAt: school.CreatedAt,
		UpdatedAt: school.UpdatedAt,
	}
}
