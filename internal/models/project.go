package models

import "time"

type ProjectStatus string

const (
	ProjectStatusRequested  ProjectStatus = "requested"
	ProjectStatusQuoted     ProjectStatus = "quoted"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// Project is a booked service request. Only the fields the chat core
// needs are modeled here; catalog and quoting live elsewhere.
type Project struct {
	ID          string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CustomerID  string        `gorm:"type:uuid;index;not null" json:"customer_id"`
	ServiceName string        `gorm:"not null" json:"service_name"`
	Status      ProjectStatus `gorm:"type:varchar(20);default:'requested'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Customer *User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}
