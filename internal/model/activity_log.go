package model

import "time"

// Activity actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// Audited entity kinds.
const (
	EntityUser        = "user"
	EntityCategory    = "category"
	EntitySubcategory = "subcategory"
	EntityItem        = "item"
)

// ActivityLog is an append-only audit record of a privileged action.
type ActivityLog struct {
	ID        string    `json:"_id" bson:"_id"`
	AdminID   string    `json:"adminId" bson:"adminId"`
	Action    string    `json:"action" bson:"action"`
	Entity    string    `json:"entity" bson:"entity"`
	EntityID  string    `json:"entityId" bson:"entityId"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Device    string    `json:"device" bson:"device"`
	IPAddress string    `json:"ipAddress" bson:"ipAddress"`
}

// ValidAction reports whether a is a recognised activity action.
func ValidAction(a string) bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// ValidEntity reports whether e is a recognised audited entity.
func ValidEntity(e string) bool {
	switch e {
	case EntityUser, EntityCategory, EntitySubcategory, EntityItem:
		return true
	}
	return false
}
