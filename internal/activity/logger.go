package activity

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// Logger turns a request plus an action into an ActivityLog.
type Logger struct {
	sink Sink
	log  *zap.Logger
	now  func() time.Time
}

func NewLogger(sink Sink, log *zap.Logger) *Logger {
	return &Logger{sink: sink, log: log, now: time.Now}
}

// Log records that actorID performed action on entity/entityID. It never
// blocks and never fails the caller.
func (l *Logger) Log(c echo.Context, actorID, action, entity, entityID string) {
	if l == nil || l.sink == nil {
		return
	}
	rec := model.ActivityLog{
		AdminID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Timestamp: l.now().UTC(),
		Device:    Device(c.Request().UserAgent()),
		IPAddress: c.RealIP(),
	}
	if !l.sink.Submit(rec) {
		l.log.Debug("activity: record not accepted", zap.String("action", action), zap.String("entity_id", entityID))
	}
}

// Stats reports the sink counters.
func (l *Logger) Stats() Stats {
	if l == nil || l.sink == nil {
		return Stats{}
	}
	return l.sink.Stats()
}

// Device renders a User-Agent header as "Browser Version / OS".
func Device(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Other 0.0.0 / Other"
	}
	p := useragent.New(ua)
	name, version := p.Browser()
	if name == "" {
		name = "Other"
	}
	if version == "" {
		version = "0.0.0"
	}
	osName := p.OS()
	if osName == "" {
		osName = "Other"
	}
	return name + " " + version + " / " + osName
}
