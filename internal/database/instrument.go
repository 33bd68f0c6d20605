package database

import (
	"errors"
	"time"

	"menumakers/internal/metrics"

	"gorm.io/gorm"
)

const startKey = "metrics:start"

type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// instrument records the duration and outcome of every gorm operation.
func instrument(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			err := tx.Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = nil
			}
			metrics.RecordDBQuery(operation, time.Since(start), err)
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before registrar
		after  registrar
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
	}
	for _, h := range hooks {
		if err := h.before.Register("metrics:before_"+h.op, before); err != nil {
			return err
		}
		if err := h.after.Register("metrics:after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}
