// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/special-academy-api/internal/model"
)

// ActivityLoggedEvent is published for every audited admin action when the
// amqp activity sink is active.  It carries the complete record so the
// consumer can persist it without looking anything up.
type ActivityLoggedEvent struct {
    ID        string `json:"id"`
    AdminID   string `json:"admin_id"`
    Action    string `json:"action"`
    Entity    string `json:"entity"`
    EntityID  string `json:"entity_id"`
    Device    string `json:"device"`
    IPAddress string `json:"ip_address"`
    LoggedAt  string `json:"logged_at"` // RFC3339Nano, UTC
}

// NewActivityLoggedEvent converts a record into its wire form.
func NewActivityLoggedEvent(l model.ActivityLog) ActivityLoggedEvent {
    return ActivityLoggedEvent{
        ID:        l.ID,
        AdminID:   l.AdminID,
        Action:    l.Action,
        Entity:    l.Entity,
        EntityID:  l.EntityID,
        Device:    l.Device,
        IPAddress: l.IPAddress,
        LoggedAt:  l.Timestamp.UTC().Format(time.RFC3339Nano),
    }
}

// Record converts the event back into an ActivityLog.  A missing or
// malformed timestamp falls back to the current time.
func (e ActivityLoggedEvent) Record() model.ActivityLog {
    ts, err := time.Parse(time.RFC3339Nano, e.LoggedAt)
    if err != nil {
        ts = time.Now().UTC()
    }
    return model.ActivityLog{
        ID:        e.ID,
        AdminID:   e.AdminID,
        Action:    e.Action,
        Entity:    e.Entity,
        EntityID:  e.EntityID,
        Timestamp: ts,
        Device:    e.Device,
        IPAddress: e.IPAddress,
    }
}
