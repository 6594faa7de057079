package models

import (
	"encoding/json"
	"fmt"
)

// OwnershipKind distinguishes shared templates from user-owned ones.
type OwnershipKind int

const (
	// OwnershipGlobal templates are visible to every user.
	OwnershipGlobal OwnershipKind = iota
	// OwnershipUser templates are visible to their owner only.
	OwnershipUser
)

// Ownership is either Global or OwnedBy(user). The zero value is Global.
type Ownership struct {
	Kind   OwnershipKind
	UserID int64
}

// Global returns the shared ownership tag.
func Global() Ownership {
	return Ownership{Kind: OwnershipGlobal}
}

// OwnedBy returns an ownership tag for userID.
func OwnedBy(userID int64) Ownership {
	return Ownership{Kind: OwnershipUser, UserID: userID}
}

// OwnershipFromNullable converts the nullable user_id column representation.
func OwnershipFromNullable(userID *int64) Ownership {
	if userID == nil {
		return Global()
	}
	return OwnedBy(*userID)
}

// Nullable returns the column representation: nil for Global.
func (o Ownership) Nullable() *int64 {
	switch o.Kind {
	case OwnershipGlobal:
		return nil
	case OwnershipUser:
		id := o.UserID
		return &id
	default:
		panic(fmt.Sprintf("unknown ownership kind %d", o.Kind))
	}
}

// VisibleTo reports whether userID may see something with this ownership.
func (o Ownership) VisibleTo(userID int64) bool {
	switch o.Kind {
	case OwnershipGlobal:
		return true
	case OwnershipUser:
		return o.UserID == userID
	default:
		panic(fmt.Sprintf("unknown ownership kind %d", o.Kind))
	}
}

// EditableBy reports whether userID may change something with this ownership.
// Global entries are only editable through the admin API.
func (o Ownership) EditableBy(userID int64) bool {
	switch o.Kind {
	case OwnershipGlobal:
		return false
	case OwnershipUser:
		return o.UserID == userID
	default:
		panic(fmt.Sprintf("unknown ownership kind %d", o.Kind))
	}
}

func (o Ownership) String() string {
	if o.Kind == OwnershipGlobal {
		return "global"
	}
	return fmt.Sprintf("user:%d", o.UserID)
}

type ownershipJSON struct {
	Global bool   `json:"global"`
	UserID *int64 `json:"user_id,omitempty"`
}

func (o Ownership) MarshalJSON() ([]byte, error) {
	return json.Marshal(ownershipJSON{Global: o.Kind == OwnershipGlobal, UserID: o.Nullable()})
}

func (o *Ownership) UnmarshalJSON(data []byte) error {
	var v ownershipJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Global || v.UserID == nil {
		*o = Global()
		return nil
	}
	*o = OwnedBy(*v.UserID)
	return nil
}
