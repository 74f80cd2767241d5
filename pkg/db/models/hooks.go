package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned client-side so the models behave the same on
// Postgres and the sqlite dev database.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error               { assignID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error           { assignID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error            { assignID(&p.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error               { assignID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error           { assignID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error              { assignID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error          { assignID(&i.ID); return nil }
func (w *WishlistItem) BeforeCreate(*gorm.DB) error       { assignID(&w.ID); return nil }
func (n *Notification) BeforeCreate(*gorm.DB) error       { assignID(&n.ID); return nil }
func (v *VerificationResult) BeforeCreate(*gorm.DB) error { assignID(&v.ID); return nil }
func (e *OutboxEvent) BeforeCreate(*gorm.DB) error        { assignID(&e.ID); return nil }
func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error          { assignID(&d.ID); return nil }
