package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Operator is an account allowed to use the status API.
type Operator struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"unique;not null"`
	Password  []byte    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (op *Operator) BeforeCreate(tx *gorm.DB) (err error) {
	if op.Id == "" {
		op.Id = uuid.NewString()
	}
	return
}

func (op *Operator) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	op.Password = hashed
	return nil
}

func (op *Operator) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(op.Password, []byte(password))
}
