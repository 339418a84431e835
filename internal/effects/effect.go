// Package effects defines the capability that lets one piece of domain logic
// change other entities. The grid only tracks where effects are active; what
// an effect does is up to its implementation.
package effects

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/talgya/owe/internal/entities"
)

// Registration errors. Returned wrapped; compare with errors.Is.
var (
	ErrNilEffect  = errors.New("nil effect")
	ErrNoIdentity = errors.New("effect type has no identity")
)

// Effect mutates a target entity in place. The target is always a private
// clone; the caller installs it afterwards.
//
// Effects are registered and removed by identity, so implementations should
// be pointer types.
type Effect interface {
	Apply(target entities.Entity)
}

// Func adapts a plain function to an Effect. Use it through a pointer
// (&effects.Func{...}) so each registration has its own identity.
type Func struct {
	Fn func(target entities.Entity)
}

// Apply calls the wrapped function.
func (f *Func) Apply(target entities.Entity) {
	if f.Fn != nil {
		f.Fn(target)
	}
}

// CheckIdentity rejects effects that cannot be registered: nil interfaces,
// nil pointers and types that are not comparable with ==.
func CheckIdentity(effect Effect) error {
	if effect == nil {
		return ErrNilEffect
	}
	t := reflect.TypeOf(effect)
	if !t.Comparable() {
		return fmt.Errorf("%s: %w", t, ErrNoIdentity)
	}
	if v := reflect.ValueOf(effect); v.Kind() == reflect.Pointer && v.IsNil() {
		return fmt.Errorf("%s: %w", t, ErrNilEffect)
	}
	return nil
}

// IndexOf returns the position of effect in list by identity, or -1.
// An effect without identity is never found.
func IndexOf(list []Effect, effect Effect) int {
	if effect == nil || !reflect.TypeOf(effect).Comparable() {
		return -1
	}
	for i, e := range list {
		if e == effect {
			return i
		}
	}
	return -1
}

// Contains reports whether effect is a member of list by identity.
func Contains(list []Effect, effect Effect) bool {
	return IndexOf(list, effect) >= 0
}
